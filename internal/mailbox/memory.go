package mailbox

import (
	"context"
	"strings"
	"sync"
)

// MemoryMailbox is an in-process Mailbox. It records every write so tests
// can assert on the exact sequence of messages.
type MemoryMailbox struct {
	mu      sync.Mutex
	content string
	history []string
	subs    map[int]chan struct{}
	nextID  int
}

func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{subs: make(map[int]chan struct{})}
}

func (m *MemoryMailbox) Write(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.content = content
	m.history = append(m.history, content)
	subs := make([]chan struct{}, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (m *MemoryMailbox) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.TrimSpace(m.content), nil
}

func (m *MemoryMailbox) Watch(ctx context.Context, onChange func()) error {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			onChange()
		}
	}
}

// History returns a copy of every value written so far.
func (m *MemoryMailbox) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
