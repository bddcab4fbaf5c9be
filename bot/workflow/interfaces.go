package workflow

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownStep      = errors.New("unknown step")
	ErrArgumentCount    = errors.New("argument count mismatch")
	ErrMissingParameter = errors.New("missing parameter")
	ErrArgumentInvalid  = errors.New("invalid argument")
	ErrTokenTooLong     = errors.New("token exceeds callback data limit")
	ErrUnknownToken     = errors.New("token does not match any step")
	ErrCorruptSession   = errors.New("corrupt session record")
)

// Backend is a key-value store with per-key expiry. Fetch returns nil, nil
// when the key is absent or expired.
type Backend interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Fetch(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// SessionStorage persists one (step, data) record per chat.
type SessionStorage interface {
	Save(ctx context.Context, chatID int64, step Step, data Data) error
	Get(ctx context.Context, chatID int64) (*Session, error)
	Delete(ctx context.Context, chatID int64) error
}
