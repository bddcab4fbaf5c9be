package chat

import (
	"strings"
	"time"
)

// EventKind tells a text message from a button press.
type EventKind int

const (
	EventText EventKind = iota
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event is an inbound user event normalized from the transport update.
type Event struct {
	Kind     EventKind
	ChatID   int64
	UserID   int64
	Username string
	Time     time.Time

	// text messages
	Text string

	// callbacks
	CallbackID string
	MessageID  int64
	Data       string
}

// IsCommand reports whether the event is the given slash command,
// optionally addressed to a bot as in "/start@name".
func (e Event) IsCommand(name string) bool {
	if e.Kind != EventText {
		return false
	}
	fields := strings.Fields(e.Text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == "/"+name
}
