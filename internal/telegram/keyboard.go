package telegram

import "github.com/go-telegram/bot/models"

// LinkKeyboard is an inline keyboard with a single button opening url.
func LinkKeyboard(text, url string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: text, URL: url}},
		},
	}
}
