package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/lda/pkg/lda/internalerr"
)

// ErrNotFound is returned by Load for an unknown model ID.
var ErrNotFound = internalerr.ErrNotFound

// Store persists serialized models keyed by ID. Blobs are opaque to the
// store; see package codec for their layout.
type Store interface {
	Close() error

	// Save writes blob under id, replacing any previous value.
	Save(ctx context.Context, id string, blob []byte) error
	// Load returns the blob stored under id or ErrNotFound.
	Load(ctx context.Context, id string) ([]byte, error)
	// Delete removes id. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	// List returns the stored IDs starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ValidateID rejects IDs that cannot be used as a key by every backend.
func ValidateID(id string) error {
	if id == "" || strings.TrimSpace(id) != id {
		return fmt.Errorf("%w: model id %q", internalerr.ErrInvalidInput, id)
	}
	if strings.ContainsAny(id, "\x00\n") {
		return fmt.Errorf("%w: model id %q contains control characters", internalerr.ErrInvalidInput, id)
	}
	return nil
}
