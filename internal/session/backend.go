package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSlot is returned by Backend.Load when the slot does not exist or has expired.
var ErrNoSlot = errors.New("session slot not found")

// Backend persists sealed slot records by slot id.
type Backend interface {
	Name() string
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
