// Package state persists the JSON blobs the bot carries between runs: the
// set of delivered news URLs and the user settings.
package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no blob exists for the handle.
var ErrNotFound = errors.New("state: blob not found")

// Store reads and writes whole JSON documents by handle. Writes replace the
// previous document; callers do their own read-merge-write.
type Store interface {
	Load(ctx context.Context, handle string) ([]byte, error)
	Save(ctx context.Context, handle string, data []byte) error
	Name() string
}
