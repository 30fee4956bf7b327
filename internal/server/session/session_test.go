package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Handshake(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	assert.Equal(t, LoggedOut, s.State())
	assert.False(t, s.Active())

	require.NoError(t, s.BeginLogin("alice", "alice.json", "/data/alice.json"))
	assert.Equal(t, AwaitingLoginAck, s.State())
	assert.False(t, s.Active())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "alice", s.UserName())
	assert.Equal(t, "alice.json", s.Pathway())
	assert.Equal(t, "/data/alice.json", s.Location())

	require.NoError(t, s.ConfirmLogin())
	assert.Equal(t, LoggedIn, s.State())
	assert.True(t, s.Active())
	assert.Equal(t, fixed, s.LoggedInAt())
}

func TestSession_ConfirmWithoutHandshake(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.ConfirmLogin(), ErrInvalidTransition)
	assert.Equal(t, LoggedOut, s.State())
}

func TestSession_ConfirmWithoutPathway(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginLogin("alice", "", ""))
	require.ErrorIs(t, s.ConfirmLogin(), ErrNoPathway)
	assert.Equal(t, LoggedOut, s.State())
	assert.False(t, s.Active())
}

func TestSession_RestartHandshake(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginLogin("alice", "a.json", "a"))
	first := s.ID()

	require.NoError(t, s.BeginLogin("bob", "b.json", "b"))
	assert.Equal(t, AwaitingLoginAck, s.State())
	assert.Equal(t, "bob", s.UserName())
	assert.NotEqual(t, first, s.ID())
}

func TestSession_LoginWhileLoggedIn(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginLogin("alice", "a.json", "a"))
	require.NoError(t, s.ConfirmLogin())

	require.ErrorIs(t, s.BeginLogin("bob", "b.json", "b"), ErrInvalidTransition)
	assert.Equal(t, "alice", s.UserName())
	assert.True(t, s.Active())
}

func TestSession_LogoutIsIdempotent(t *testing.T) {
	s := New()
	assert.False(t, s.Logout())

	require.NoError(t, s.BeginLogin("alice", "a.json", "a"))
	require.NoError(t, s.ConfirmLogin())

	assert.True(t, s.Logout())
	assert.Equal(t, LoggedOut, s.State())
	assert.Empty(t, s.Pathway())
	assert.Empty(t, s.ID())
	assert.True(t, s.LoggedInAt().IsZero())

	assert.False(t, s.Logout())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "LOGGED_OUT", LoggedOut.String())
	assert.Equal(t, "AWAITING_LOGIN_ACK", AwaitingLoginAck.String())
	assert.Equal(t, "LOGGED_IN", LoggedIn.String())
	assert.Equal(t, "State(9)", State(9).String())
}
