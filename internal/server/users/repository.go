package users

import "context"

// Repository authenticates credential pairs.
//
// Lookup returns the first user whose name matches username
// case-insensitively and whose secret matches exactly. It returns
// common.ErrorUnauthorized when no such user exists, and a
// common.ErrorStoreIO wrapped error when the store cannot be read.
type Repository interface {
	Lookup(ctx context.Context, username, secret string) (*User, error)
}
