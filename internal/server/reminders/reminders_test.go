package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/protocol"
	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
	"github.com/dmitrijs2005/goalkeeper/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	docs    map[string][]goals.Goal
	saves   int
	saveErr error
}

func newMemStore(pathway string, list []goals.Goal) *memStore {
	return &memStore{docs: map[string][]goals.Goal{pathway: list}}
}

func (m *memStore) Load(ctx context.Context, pathway string) ([]goals.Goal, error) {
	out := make([]goals.Goal, len(m.docs[pathway]))
	copy(out, m.docs[pathway])
	return out, nil
}

func (m *memStore) Save(ctx context.Context, pathway string, list []goals.Goal) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.docs[pathway] = append([]goals.Goal(nil), list...)
	return nil
}

func (m *memStore) Locate(pathway string) string { return "/data/" + pathway }

type countingRecorder struct{ sent, acked, failed int }

func (r *countingRecorder) ReminderSent()   { r.sent++ }
func (r *countingRecorder) ReminderAcked()  { r.acked++ }
func (r *countingRecorder) ReminderFailed() { r.failed++ }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func loggedIn(t *testing.T) *session.Session {
	t.Helper()
	s := session.New()
	require.NoError(t, s.BeginLogin("alice", "alice.json", "/data/alice.json"))
	require.NoError(t, s.ConfirmLogin())
	return s
}

func dueGoals() []goals.Goal {
	return []goals.Goal{
		{Name: "first", Deadline: "2024-05-01T10:00:00Z", Reminders: "one"},
		{Name: "future", Deadline: "2030-01-01T10:00:00Z", Reminders: "later"},
		{Name: "second", Deadline: "2024-04-01T10:00:00Z"},
		{Name: "done", Deadline: "2024-01-01T10:00:00Z", ReminderSent: true},
		{Name: "nodate", Reminders: "never"},
		{Name: "third", Deadline: "2024-06-01T12:00:00Z", Reminders: "three"},
	}
}

func TestBacklog_StorageOrderAndFilters(t *testing.T) {
	var skipped []string
	items := Backlog(append(dueGoals(), goals.Goal{Name: "bad", Deadline: "soon"}), now, time.UTC,
		func(g goals.Goal) { skipped = append(skipped, g.Name) })

	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].GoalName)
	assert.Equal(t, "one", items[0].Text)
	assert.Equal(t, "second", items[1].GoalName)
	assert.Equal(t, goals.DefaultReminderText, items[1].Text)
	assert.Equal(t, "third", items[2].GoalName, "deadline equal to now is due")
	assert.Equal(t, []string{"bad"}, skipped)
}

func TestController_EmptyBacklog(t *testing.T) {
	store := newMemStore("alice.json", []goals.Goal{{Name: "x", Deadline: "2030-01-01"}})
	c := NewController(store, logging.Discard(), Options{Location: time.UTC})

	out, err := c.Start(context.Background(), loggedIn(t), now)
	require.NoError(t, err)
	assert.Equal(t, protocol.RespNoReminders, out)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, store.saves)
}

func TestController_FullCycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice.json", dueGoals())
	rec := &countingRecorder{}
	c := NewController(store, logging.Discard(), Options{Location: time.UTC, Recorder: rec})
	sess := loggedIn(t)

	out, err := c.Start(ctx, sess, now)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReminderPayload("one"), out)
	assert.Equal(t, AwaitingAck, c.State())
	assert.Equal(t, 2, c.Pending())
	assert.True(t, store.docs["alice.json"][0].ReminderSent, "marked before the payload is emitted")
	assert.False(t, store.docs["alice.json"][2].ReminderSent)

	out, err = c.Ack(ctx, sess, now)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReminderPayload(goals.DefaultReminderText), out)

	out, err = c.Ack(ctx, sess, now)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReminderPayload("three"), out)

	out, err = c.Ack(ctx, sess, now)
	require.NoError(t, err)
	assert.Equal(t, protocol.RespNoReminders, out)
	assert.Equal(t, Idle, c.State())

	assert.Equal(t, 3, rec.sent)
	assert.Equal(t, 3, rec.acked)
	assert.Equal(t, 3, store.saves)

	doc := store.docs["alice.json"]
	assert.True(t, doc[0].ReminderSent)
	assert.False(t, doc[1].ReminderSent, "future goal untouched")
	assert.True(t, doc[2].ReminderSent)
	assert.False(t, doc[4].ReminderSent, "goal without deadline untouched")
	assert.True(t, doc[5].ReminderSent)

	_, err = c.Ack(ctx, sess, now)
	require.ErrorIs(t, err, ErrNoPendingReminder)

	out, err = c.Start(ctx, sess, now)
	require.NoError(t, err)
	assert.Equal(t, protocol.RespNoReminders, out, "a second cycle finds nothing due")
}

func TestController_RequiresSession(t *testing.T) {
	c := NewController(newMemStore("alice.json", dueGoals()), logging.Discard(), Options{})
	_, err := c.Start(context.Background(), session.New(), now)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestController_StartWhileOutstandingResends(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice.json", dueGoals())
	c := NewController(store, logging.Discard(), Options{Location: time.UTC})
	sess := loggedIn(t)

	first, err := c.Start(ctx, sess, now)
	require.NoError(t, err)
	again, err := c.Start(ctx, sess, now)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 2, c.Pending())
}

func TestController_StoreFailureAbortsWithoutPayload(t *testing.T) {
	store := newMemStore("alice.json", dueGoals())
	store.saveErr = common.ErrorStoreIO
	c := NewController(store, logging.Discard(), Options{Location: time.UTC})

	out, err := c.Start(context.Background(), loggedIn(t), now)
	require.ErrorIs(t, err, common.ErrorStoreIO)
	assert.Empty(t, out)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, c.Pending())
}

func TestController_TickWaitsForeverByDefault(t *testing.T) {
	ctx := context.Background()
	c := NewController(newMemStore("alice.json", dueGoals()), logging.Discard(), Options{Location: time.UTC})
	sess := loggedIn(t)

	_, err := c.Start(ctx, sess, now)
	require.NoError(t, err)

	out, err := c.Tick(ctx, sess, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, AwaitingAck, c.State())
}

func TestController_TickResendsThenGivesUp(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice.json", dueGoals())
	rec := &countingRecorder{}
	c := NewController(store, logging.Discard(), Options{
		Location: time.UTC, AckTimeout: time.Second, AckRetries: 1, Recorder: rec,
	})
	sess := loggedIn(t)

	_, err := c.Start(ctx, sess, now)
	require.NoError(t, err)

	out, err := c.Tick(ctx, sess, now.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Empty(t, out, "not timed out yet")

	out, err = c.Tick(ctx, sess, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, protocol.ReminderPayload("one"), out)

	out, err = c.Tick(ctx, sess, now.Add(2*time.Second))
	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Empty(t, out)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, c.Pending())
	assert.Equal(t, 1, rec.failed)
	assert.False(t, store.docs["alice.json"][0].ReminderSent, "flag reverted after give-up")
}

func TestController_AckAfterTimeoutRestartsCleanly(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice.json", dueGoals())
	c := NewController(store, logging.Discard(), Options{Location: time.UTC, AckTimeout: time.Second})
	sess := loggedIn(t)

	_, err := c.Start(ctx, sess, now)
	require.NoError(t, err)
	_, err = c.Tick(ctx, sess, now.Add(time.Minute))
	require.True(t, errors.Is(err, ErrDeliveryFailed))

	_, err = c.Ack(ctx, sess, now.Add(time.Minute))
	require.ErrorIs(t, err, ErrNoPendingReminder)

	out, err := c.Start(ctx, sess, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, protocol.ReminderPayload("one"), out, "reverted goal is due again")
}

func TestController_Reset(t *testing.T) {
	ctx := context.Background()
	c := NewController(newMemStore("alice.json", dueGoals()), logging.Discard(), Options{Location: time.UTC})
	sess := loggedIn(t)

	_, err := c.Start(ctx, sess, now)
	require.NoError(t, err)
	c.Reset()

	assert.Equal(t, Idle, c.State())
	assert.Zero(t, c.Pending())
	_, err = c.Ack(ctx, sess, now)
	require.ErrorIs(t, err, ErrNoPendingReminder)
}
