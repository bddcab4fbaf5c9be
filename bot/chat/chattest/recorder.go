// Package chattest provides a recording chat.Messenger for tests.
package chattest

import (
	"strings"
	"sync"

	"HouseBot/bot/chat"
)

// Message is one outbound call captured by Recorder.
type Message struct {
	Kind      string // "send", "edit" or "photo"
	ChatID    int64
	MessageID int64
	Text      string
	PhotoURL  string
	Keyboard  chat.Keyboard
}

// Tokens returns every callback token of the message keyboard in row order.
func (m Message) Tokens() []string {
	var out []string
	for _, row := range m.Keyboard {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

// Button returns the token of the first button whose label contains text.
func (m Message) Button(text string) (string, bool) {
	for _, row := range m.Keyboard {
		for _, b := range row {
			if strings.Contains(b.Text, text) {
				return b.Data, true
			}
		}
	}
	return "", false
}

// Recorder implements chat.Messenger and keeps everything sent through it.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	Answered []string
	Err      error
}

func (r *Recorder) record(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, m)
	return nil
}

func (r *Recorder) SendText(chatID int64, text string, keyboard chat.Keyboard) error {
	return r.record(Message{Kind: "send", ChatID: chatID, Text: text, Keyboard: keyboard})
}

func (r *Recorder) EditText(chatID, messageID int64, text string, keyboard chat.Keyboard) error {
	return r.record(Message{Kind: "edit", ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
}

func (r *Recorder) SendPhoto(chatID int64, photoURL, caption string, keyboard chat.Keyboard) error {
	return r.record(Message{Kind: "photo", ChatID: chatID, PhotoURL: photoURL, Text: caption, Keyboard: keyboard})
}

func (r *Recorder) AnswerCallback(callbackID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Answered = append(r.Answered, callbackID)
	return nil
}

// Last returns the most recent message or an empty one.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = nil
	r.Answered = nil
}

// Contains reports whether any recorded message text contains s.
func (r *Recorder) Contains(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if strings.Contains(m.Text, s) {
			return true
		}
	}
	return false
}
