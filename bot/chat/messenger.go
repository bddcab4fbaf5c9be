package chat

// Messenger is the outbound side of a chat transport.
// A nil keyboard sends the message without buttons.
type Messenger interface {
	SendText(chatID int64, text string, keyboard Keyboard) error
	EditText(chatID, messageID int64, text string, keyboard Keyboard) error
	SendPhoto(chatID int64, photoURL, caption string, keyboard Keyboard) error
	AnswerCallback(callbackID, text string) error
}

// InlineButton is a button that sends Data back as callback token.
type InlineButton struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]InlineButton

// Row appends a row of buttons and returns the keyboard.
func (k Keyboard) Row(buttons ...InlineButton) Keyboard {
	if len(buttons) == 0 {
		return k
	}
	return append(k, buttons)
}
