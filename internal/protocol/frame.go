package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
)

type Role string

const (
	RoleNone    Role = ""
	RoleClient  Role = "client"
	RoleService Role = "service"
)

// Message is one mailbox value. From is RoleNone for unframed messages.
type Message struct {
	From Role
	Seq  uint64
	Body string
}

func (m Message) Framed() bool {
	return m.From != RoleNone
}

// Encode renders m as mailbox content.
func Encode(m Message) string {
	if !m.Framed() {
		return m.Body
	}
	return fmt.Sprintf("@%s:%d\n%s", m.From, m.Seq, m.Body)
}

// Decode parses mailbox content. Content that does not start with a known
// "@client:" or "@service:" prefix is a legacy message. A known prefix with
// a malformed sequence number is reported as common.ErrorCorruptMessage.
func Decode(raw string) (Message, error) {
	var role Role
	switch {
	case strings.HasPrefix(raw, "@"+string(RoleClient)+":"):
		role = RoleClient
	case strings.HasPrefix(raw, "@"+string(RoleService)+":"):
		role = RoleService
	default:
		return Message{Body: raw}, nil
	}

	header, body, _ := strings.Cut(raw, "\n")
	seqText := strings.TrimPrefix(header, "@"+string(role)+":")

	seq, err := strconv.ParseUint(strings.TrimSpace(seqText), 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad sequence %q", common.ErrorCorruptMessage, seqText)
	}

	return Message{From: role, Seq: seq, Body: strings.TrimSpace(body)}, nil
}

// Sequencer hands out increasing sequence numbers.
type Sequencer struct {
	n atomic.Uint64
}

// NewSequencer starts numbering after seed. Clients seed with the wall clock
// so a restarted client does not reuse numbers the service has already seen.
func NewSequencer(seed uint64) *Sequencer {
	s := &Sequencer{}
	s.n.Store(seed)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}
