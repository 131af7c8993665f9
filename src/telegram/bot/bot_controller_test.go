package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/telegram/handlers"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type replies map[int64][]string

func (r replies) SendText(ctx context.Context, chatId int64, text string) error {
	r[chatId] = append(r[chatId], text)
	return nil
}

func TestHandleUpdateReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"success", nil, nil},
		{"invalid input", handlers.NewInvalidInput("Группа не найдена"), []string{"Группа не найдена"}},
		{"store failure", errors.New("database is locked"), []string{handlers.GENERIC_FAILURE}},
		{"no route", tgutils.ErrNoRoute, nil},
	}

	for _, test := range tests {
		sent := replies{}
		controller := &BotController{
			handler: tgutils.UpdateHandlerFunc(func(ctx context.Context, update *tgbotapi.Update) error {
				if _, ok := ctx.Deadline(); !ok {
					t.Errorf(`%s: update context has no deadline`, test.name)
				}
				return test.err
			}),
			replier:       sent,
			updateTimeout: time.Second,
		}
		update := &tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "/group"}}
		controller.HandleUpdate(context.Background(), update)

		got := sent[1]
		if len(got) != len(test.want) || (len(got) > 0 && got[0] != test.want[0]) {
			t.Errorf(`HandleUpdate(%s) replied %v, want %v`, test.name, got, test.want)
		}
	}
}
