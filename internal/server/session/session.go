// Package session tracks the single login session the service holds
// through the handshake LoggedOut -> AwaitingLoginAck -> LoggedIn.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is a session state.
type State int

const (
	LoggedOut State = iota
	AwaitingLoginAck
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "LOGGED_OUT"
	case AwaitingLoginAck:
		return "AWAITING_LOGIN_ACK"
	case LoggedIn:
		return "LOGGED_IN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned for an operation the current state
	// does not allow.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoPathway is returned by ConfirmLogin when no goal pathway was
	// recorded; the session stays unauthenticated.
	ErrNoPathway = errors.New("no pathway recorded for session")
)

// Session is owned by the dispatcher goroutine and is not safe for
// concurrent use.
type Session struct {
	id         string
	state      State
	userName   string
	pathway    string
	location   string
	loggedInAt time.Time

	now func() time.Time
}

// New returns a logged-out session.
func New() *Session {
	return &Session{now: time.Now}
}

// BeginLogin records an authenticated user and waits for the client's
// acknowledgement. It is allowed while logged out or while a previous
// handshake is still pending, which restarts that handshake.
func (s *Session) BeginLogin(userName, pathway, location string) error {
	if s.state == LoggedIn {
		return fmt.Errorf("%w: login while %s", ErrInvalidTransition, s.state)
	}

	s.id = uuid.NewString()
	s.state = AwaitingLoginAck
	s.userName = userName
	s.pathway = pathway
	s.location = location
	s.loggedInAt = time.Time{}
	return nil
}

// ConfirmLogin completes the handshake.
func (s *Session) ConfirmLogin() error {
	if s.state != AwaitingLoginAck {
		return fmt.Errorf("%w: login ack while %s", ErrInvalidTransition, s.state)
	}
	if s.pathway == "" {
		s.clear()
		return ErrNoPathway
	}

	s.state = LoggedIn
	s.loggedInAt = s.now()
	return nil
}

// Logout returns to LoggedOut from any state and reports whether a
// session or pending handshake was dropped.
func (s *Session) Logout() bool {
	had := s.state != LoggedOut
	s.clear()
	return had
}

func (s *Session) clear() {
	s.id = ""
	s.state = LoggedOut
	s.userName = ""
	s.pathway = ""
	s.location = ""
	s.loggedInAt = time.Time{}
}

// Active reports whether the handshake has completed.
func (s *Session) Active() bool { return s.state == LoggedIn }

func (s *Session) State() State          { return s.state }
func (s *Session) ID() string            { return s.id }
func (s *Session) UserName() string      { return s.userName }
func (s *Session) Pathway() string       { return s.pathway }
func (s *Session) Location() string      { return s.location }
func (s *Session) LoggedInAt() time.Time { return s.loggedInAt }
