// Package common defines sentinel errors and tiny helpers shared by the
// goalkeeper service and client. Callers should use errors.Is to match the
// error values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorStoreIO = errors.New("store i/o failure")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Channel errors.
	ErrorCorruptMessage = errors.New("corrupt mailbox message")
)
