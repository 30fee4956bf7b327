// Package mailbox implements the single-slot channel shared by the service
// and the client: one mutable value, overwritten by every write, plus a
// change notification.
//
// Two implementations are provided. FileMailbox keeps the value in a file
// and detects changes with fsnotify or a fixed-interval poll. MemoryMailbox
// keeps it in memory for tests and in-process wiring.
package mailbox

import (
	"context"
	"time"
)

// Mailbox is a one-slot, last-writer-wins channel. It is not a queue: a
// write that lands before the peer read the previous value replaces it.
type Mailbox interface {
	// Write replaces the whole content atomically.
	Write(ctx context.Context, content string) error

	// Read returns the current content with surrounding whitespace trimmed.
	Read(ctx context.Context) (string, error)

	// Watch calls onChange whenever the content may have changed, until ctx
	// is cancelled. Spurious calls are allowed; callers compare content.
	Watch(ctx context.Context, onChange func()) error
}

type WatchMode string

const (
	// WatchAuto uses file notifications and falls back to polling when the
	// platform cannot provide them.
	WatchAuto   WatchMode = "auto"
	WatchNotify WatchMode = "notify"
	WatchPoll   WatchMode = "poll"
)

// MaxPollInterval bounds how stale a poll-based watcher may be.
const MaxPollInterval = time.Second

func ParseWatchMode(s string) (WatchMode, bool) {
	switch WatchMode(s) {
	case WatchAuto, WatchNotify, WatchPoll:
		return WatchMode(s), true
	default:
		return "", false
	}
}
