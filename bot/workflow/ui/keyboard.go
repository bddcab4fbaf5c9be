package ui

import (
	"HouseBot/bot/chat"
)

// Button creates an inline button carrying a callback token.
func Button(text, token string) chat.InlineButton {
	return chat.InlineButton{Text: text, Data: token}
}

// ConfirmCancelKeyboard creates a keyboard with Confirm/Cancel buttons in one row.
func ConfirmCancelKeyboard(confirmText, confirmToken, cancelText, cancelToken string) chat.Keyboard {
	return chat.Keyboard{
		{Button(confirmText, confirmToken), Button(cancelText, cancelToken)},
	}
}

// SelectableItem represents an item that can be selected from a list.
type SelectableItem struct {
	Token string
	Text  string
}

// SelectionKeyboard creates an inline keyboard with one item per row.
func SelectionKeyboard(items []SelectableItem) chat.Keyboard {
	rows := make(chat.Keyboard, len(items))
	for i, item := range items {
		rows[i] = []chat.InlineButton{Button(item.Text, item.Token)}
	}
	return rows
}

// MenuKeyboard lays out menu items in the given rows.
func MenuKeyboard(rows [][]SelectableItem) chat.Keyboard {
	kb := make(chat.Keyboard, len(rows))
	for i, row := range rows {
		kb[i] = make([]chat.InlineButton, len(row))
		for j, item := range row {
			kb[i][j] = Button(item.Text, item.Token)
		}
	}
	return kb
}
