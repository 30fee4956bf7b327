package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/goalkeeper/internal/filex"
	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/sethvargo/go-retry"
)

// filePerm keeps the mailbox, which carries credential pairs, away from
// other users. Service and client share access through the group.
const filePerm = 0o660

var errInvalidContent = errors.New("mailbox content is not valid UTF-8")

// newWatcher is a test seam for fsnotify.NewWatcher.
var newWatcher = fsnotify.NewWatcher

// Options tunes a FileMailbox.
type Options struct {
	Mode         WatchMode
	PollInterval time.Duration

	// ReadRetries and ReadBackoff bound how long Read waits for a file that
	// is briefly missing or holds invalid bytes.
	ReadRetries uint64
	ReadBackoff time.Duration
}

func DefaultOptions() Options {
	return Options{
		Mode:         WatchAuto,
		PollInterval: 250 * time.Millisecond,
		ReadRetries:  5,
		ReadBackoff:  20 * time.Millisecond,
	}
}

// FileMailbox is a Mailbox backed by a single file.
type FileMailbox struct {
	path   string
	opts   Options
	logger logging.Logger
}

// NewFileMailbox prepares a mailbox at path, creating its directory. The
// file itself is created by the first Write (see Reset).
func NewFileMailbox(path string, opts Options, logger logging.Logger) (*FileMailbox, error) {
	dir, err := filex.EnsureDir(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("mailbox dir: %w", err)
	}

	if opts.PollInterval <= 0 || opts.PollInterval > MaxPollInterval {
		opts.PollInterval = MaxPollInterval
	}
	if opts.ReadBackoff <= 0 {
		opts.ReadBackoff = DefaultOptions().ReadBackoff
	}
	if opts.Mode == "" {
		opts.Mode = WatchAuto
	}

	return &FileMailbox{
		path:   filepath.Join(dir, filepath.Base(path)),
		opts:   opts,
		logger: logger.With("module", "mailbox", "path", path),
	}, nil
}

func (m *FileMailbox) Path() string {
	return m.path
}

// Reset empties the mailbox.
func (m *FileMailbox) Reset(ctx context.Context) error {
	return m.Write(ctx, "")
}

func (m *FileMailbox) Write(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := filex.WriteAtomic(m.path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("mailbox write: %w", err)
	}
	return nil
}

func (m *FileMailbox) Read(ctx context.Context) (string, error) {
	var content string

	backoff := retry.WithMaxRetries(m.opts.ReadRetries, retry.NewConstant(m.opts.ReadBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := os.ReadFile(m.path)
		if errors.Is(err, fs.ErrNotExist) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return retry.RetryableError(errInvalidContent)
		}
		content = strings.TrimSpace(string(data))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("mailbox read: %w", err)
	}

	return content, nil
}

func (m *FileMailbox) Watch(ctx context.Context, onChange func()) error {
	switch m.opts.Mode {
	case WatchPoll:
		return m.poll(ctx, m.opts.PollInterval, onChange)

	case WatchNotify:
		w, err := newWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		return m.notify(ctx, w, onChange)

	default:
		w, err := newWatcher()
		if err != nil {
			m.logger.Warn(ctx, "file notifications unavailable, polling instead",
				"error", err, "interval", m.opts.PollInterval)
			return m.poll(ctx, m.opts.PollInterval, onChange)
		}
		return m.notify(ctx, w, onChange)
	}
}

// poll reads the file every interval and reports content changes.
func (m *FileMailbox) poll(ctx context.Context, interval time.Duration, onChange func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last, _ := m.Read(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current, err := m.Read(ctx)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Warn(ctx, "poll read failed", "error", err)
				}
				continue
			}
			if current != last {
				last = current
				onChange()
			}
		}
	}
}

// notify watches the parent directory: the file is replaced by rename on
// every write, so a watch on the file itself would be lost after the first
// write. A slow poll runs alongside to cover dropped events.
func (m *FileMailbox) notify(ctx context.Context, w *fsnotify.Watcher, onChange func()) error {
	defer w.Close()

	if err := w.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(m.path), err)
	}

	m.logger.Debug(ctx, "watching mailbox with file notifications")

	safety := time.NewTicker(MaxPollInterval)
	defer safety.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != m.path {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				onChange()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn(ctx, "file watcher error", "error", err)

		case <-safety.C:
			onChange()
		}
	}
}
