package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	DefaultSessionTTL    = 10 * time.Hour
	DefaultSessionPrefix = "housebot:session:"
)

// Store keeps one session per chat in a TTL backend. It does not lock;
// callers serialize work per chat.
type Store struct {
	backend Backend
	ttl     time.Duration
	prefix  string
}

// NewStore creates a session store. Zero ttl or empty prefix fall back to defaults.
func NewStore(backend Backend, ttl time.Duration, prefix string) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &Store{backend: backend, ttl: ttl, prefix: prefix}
}

func (s *Store) key(chatID int64) string {
	return s.prefix + strconv.FormatInt(chatID, 10)
}

// Save overwrites the session of chatID and refreshes its TTL.
func (s *Store) Save(ctx context.Context, chatID int64, step Step, data Data) error {
	if !step.Valid() {
		return fmt.Errorf("%w: step %q", ErrArgumentInvalid, string(step))
	}
	payload, err := json.Marshal(Session{Step: step, Data: data})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Put(ctx, s.key(chatID), payload, s.ttl); err != nil {
		return fmt.Errorf("save session %d: %w", chatID, err)
	}
	return nil
}

type rawSession struct {
	Step *string         `json:"step"`
	Data json.RawMessage `json:"data"`
}

// Get returns the session of chatID or nil when none exists or it expired.
// A record that cannot be decoded yields ErrCorruptSession.
func (s *Store) Get(ctx context.Context, chatID int64) (*Session, error) {
	payload, err := s.backend.Fetch(ctx, s.key(chatID))
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", chatID, err)
	}
	if payload == nil {
		return nil, nil
	}
	return decodeSession(payload)
}

func decodeSession(payload []byte) (*Session, error) {
	var raw rawSession
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if raw.Step == nil || *raw.Step == "" {
		return nil, fmt.Errorf("%w: missing step", ErrCorruptSession)
	}
	step := Step(*raw.Step)
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrCorruptSession, ErrUnknownStep, *raw.Step)
	}

	trimmed := bytes.TrimSpace(raw.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing data", ErrCorruptSession)
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: data is not an object", ErrCorruptSession)
	}

	data, err := NormalizeData(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSession, err)
	}
	return &Session{Step: step, Data: data}, nil
}

// Delete removes the session of chatID. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, chatID int64) error {
	if err := s.backend.Remove(ctx, s.key(chatID)); err != nil {
		return fmt.Errorf("delete session %d: %w", chatID, err)
	}
	return nil
}
