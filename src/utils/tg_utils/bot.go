package tgutils

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	*tgbotapi.BotAPI
}

func NewBot(botApi *tgbotapi.BotAPI) *Bot {
	return &Bot{BotAPI: botApi}
}

type sendResult struct {
	tgbotapi.Message
	error
}

// SendCtx sends c and stops waiting for the answer once ctx is done.
func (bot *Bot) SendCtx(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	resChan := make(chan sendResult, 1)
	go func() {
		msg, err := bot.BotAPI.Send(c)
		resChan <- sendResult{msg, err}
	}()
	select {
	case res := <-resChan:
		return res.Message, res.error
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	}
}

// RequestCtx is SendCtx for methods that do not answer with a message.
func (bot *Bot) RequestCtx(ctx context.Context, c tgbotapi.Chattable) error {
	errChan := make(chan error, 1)
	go func() {
		_, err := bot.BotAPI.Request(c)
		errChan <- err
	}()
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendText sends an HTML formatted message without link previews.
func (bot *Bot) SendText(ctx context.Context, chatId int64, text string) error {
	msg := NewHTMLMessage(chatId, text)
	_, err := bot.SendCtx(ctx, msg)
	return err
}

func (bot *Bot) SendTextWithMarkup(ctx context.Context, chatId int64, text string, markup any) error {
	msg := NewHTMLMessage(chatId, text)
	msg.ReplyMarkup = markup
	_, err := bot.SendCtx(ctx, msg)
	return err
}

func (bot *Bot) AnswerCallback(ctx context.Context, queryId, text string) error {
	return bot.RequestCtx(ctx, tgbotapi.NewCallback(queryId, text))
}

// EditMarkup replaces the inline keyboard of a sent message.
func (bot *Bot) EditMarkup(ctx context.Context, chatId int64, messageId int, markup tgbotapi.InlineKeyboardMarkup) error {
	return bot.RequestCtx(ctx, tgbotapi.NewEditMessageReplyMarkup(chatId, messageId, markup))
}

// SetCommands publishes the command menu shown by Telegram clients.
func (bot *Bot) SetCommands(ctx context.Context, commands []tgbotapi.BotCommand) error {
	if err := bot.RequestCtx(ctx, tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

func NewHTMLMessage(chatId int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg
}
