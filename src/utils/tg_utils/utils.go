package tgutils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type TextSender interface {
	SendText(ctx context.Context, chatId int64, text string) error
}

// SendMessageToOwners delivers text to every owner and reports the owners it could not reach.
func SendMessageToOwners(ctx context.Context, bot TextSender, owners []int64, text string) error {
	var errs []error
	for _, owner := range owners {
		if err := bot.SendText(ctx, owner, text); err != nil {
			errs = append(errs, fmt.Errorf("failed to send message to owner %d: %w", owner, err))
		}
	}
	return errors.Join(errs...)
}

// CommandArgs splits the command arguments on whitespace.
func CommandArgs(arguments string) []string {
	return strings.Fields(arguments)
}

// ParseChatId reads a chat id argument, group chats have negative ids.
func ParseChatId(raw string) (int64, error) {
	chatId, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || chatId == 0 {
		return 0, fmt.Errorf("invalid chat id %q", raw)
	}
	return chatId, nil
}
