package tgutils

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	KEYBOARD_COLUMNS = 3
	KEYBOARD_PAGE    = 24

	PAGE_PREVIOUS = "◀️"
	PAGE_NEXT     = "▶️"
)

type KeyboardButton struct {
	Text string
	Data string
}

// PagedInlineKeyboard lays buttons out in rows of columns and adds page switches
// carrying pagePrefix+page as callback data.
func PagedInlineKeyboard(buttons []KeyboardButton, columns, pageSize, page int, pagePrefix string) tgbotapi.InlineKeyboardMarkup {
	if columns <= 0 {
		columns = KEYBOARD_COLUMNS
	}
	if pageSize <= 0 {
		pageSize = len(buttons)
	}
	pages := max((len(buttons)+pageSize-1)/pageSize, 1)
	page = min(max(page, 0), pages-1)

	start := page * pageSize
	end := min(start+pageSize, len(buttons))
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, button := range buttons[start:end] {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		if len(row) == columns {
			rows = append(rows, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if pages > 1 {
		navigation := []tgbotapi.InlineKeyboardButton{}
		if page > 0 {
			navigation = append(navigation, tgbotapi.NewInlineKeyboardButtonData(PAGE_PREVIOUS, fmt.Sprintf("%s%d", pagePrefix, page-1)))
		}
		if page < pages-1 {
			navigation = append(navigation, tgbotapi.NewInlineKeyboardButtonData(PAGE_NEXT, fmt.Sprintf("%s%d", pagePrefix, page+1)))
		}
		rows = append(rows, navigation)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
