package goals

import (
	"context"
	"errors"
)

// ErrInvalidPathway is returned when a pathway would resolve outside the
// store's root.
var ErrInvalidPathway = errors.New("invalid pathway")

// Store loads and saves a user's goal document, keyed by the pathway
// recorded for that user in the credential store.
//
// A document that does not exist is an empty goal list, not an error.
// Save replaces the whole document. Failures are wrapped with
// common.ErrorStoreIO.
type Store interface {
	Load(ctx context.Context, pathway string) ([]Goal, error)
	Save(ctx context.Context, pathway string, goals []Goal) error
	// Locate returns the resolved location of pathway as handed to the
	// client after a successful login.
	Locate(pathway string) string
}
