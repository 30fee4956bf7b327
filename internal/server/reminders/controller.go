package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/protocol"
	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
	"github.com/dmitrijs2005/goalkeeper/internal/server/session"
)

// State of the delivery cycle.
type State int

const (
	Idle State = iota
	AwaitingAck
)

func (s State) String() string {
	if s == AwaitingAck {
		return "AWAITING_ACK"
	}
	return "IDLE"
}

var (
	// ErrNoPendingReminder is returned by Ack when nothing is outstanding.
	ErrNoPendingReminder = errors.New("no reminder awaiting acknowledgement")
	// ErrDeliveryFailed is returned by Tick when a reminder was given up on.
	ErrDeliveryFailed = errors.New("reminder delivery failed")
	// ErrNoSession is returned when the session has no goal pathway.
	ErrNoSession = errors.New("no active session")
)

// Recorder receives delivery events. Implementations must be cheap; they
// are called from the dispatcher goroutine.
type Recorder interface {
	ReminderSent()
	ReminderAcked()
	ReminderFailed()
}

type nopRecorder struct{}

func (nopRecorder) ReminderSent()   {}
func (nopRecorder) ReminderAcked()  {}
func (nopRecorder) ReminderFailed() {}

// Options tune a Controller.
type Options struct {
	// AckTimeout is how long to wait for REMINDER_RECEIVED. Zero waits
	// forever.
	AckTimeout time.Duration
	// AckRetries is how many times a reminder is re-sent after a timeout
	// before the cycle is abandoned.
	AckRetries int
	// Location interprets zone-less deadlines. Nil means time.Local.
	Location *time.Location
	Recorder Recorder
}

// Controller runs the reminder cycle for the current session. It never
// has more than one reminder outstanding.
//
// Methods return the response body to write to the mailbox, or "" when
// nothing should be written. Controller is not safe for concurrent use.
type Controller struct {
	store  goals.Store
	logger logging.Logger
	opts   Options

	state   State
	backlog []Item
	current *Item
	sentAt  time.Time
	resends int
}

func NewController(store goals.Store, logger logging.Logger, opts Options) *Controller {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Controller{
		store:  store,
		logger: logger.With("module", "reminders"),
		opts:   opts,
	}
}

func (c *Controller) State() State { return c.state }

// Pending returns the number of reminders queued behind the outstanding one.
func (c *Controller) Pending() int { return len(c.backlog) }

// Start begins a delivery cycle. When a reminder is already outstanding
// it is sent again instead of starting a second cycle.
func (c *Controller) Start(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	if !sess.Active() || sess.Pathway() == "" {
		return "", ErrNoSession
	}

	if c.state == AwaitingAck && c.current != nil {
		c.logger.Info(ctx, "reminder still outstanding, sending again",
			"session_id", sess.ID(), "goal", c.current.GoalName)
		c.sentAt = now
		return protocol.ReminderPayload(c.current.Text), nil
	}

	list, err := c.store.Load(ctx, sess.Pathway())
	if err != nil {
		return "", fmt.Errorf("load goals: %w", err)
	}

	c.backlog = Backlog(list, now, c.opts.Location, func(g goals.Goal) {
		c.logger.Warn(ctx, "ignoring goal with invalid deadline",
			"session_id", sess.ID(), "goal", g.Name, "deadline", g.Deadline)
	})
	c.logger.Info(ctx, "reminder cycle started", "session_id", sess.ID(), "due", len(c.backlog))

	return c.next(ctx, sess, now)
}

// Ack handles REMINDER_RECEIVED: the outstanding reminder is done and the
// next one, or NO_REMINDERS, is returned.
func (c *Controller) Ack(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	if c.state != AwaitingAck {
		return "", ErrNoPendingReminder
	}

	c.opts.Recorder.ReminderAcked()
	c.logger.Info(ctx, "reminder acknowledged", "session_id", sess.ID(), "goal", c.current.GoalName)
	c.current = nil
	c.state = Idle

	return c.next(ctx, sess, now)
}

// Tick enforces AckTimeout. It returns the outstanding reminder again
// while re-sends remain. Once they are used up the goal's reminderSent
// flag is reverted, the backlog dropped, and ErrDeliveryFailed returned.
func (c *Controller) Tick(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	if c.state != AwaitingAck || c.opts.AckTimeout <= 0 {
		return "", nil
	}
	if now.Sub(c.sentAt) < c.opts.AckTimeout {
		return "", nil
	}

	if c.resends < c.opts.AckRetries {
		c.resends++
		c.sentAt = now
		c.logger.Warn(ctx, "reminder not acknowledged, sending again",
			"session_id", sess.ID(), "goal", c.current.GoalName, "attempt", c.resends)
		return protocol.ReminderPayload(c.current.Text), nil
	}

	item := *c.current
	dropped := len(c.backlog)
	c.Reset()
	c.opts.Recorder.ReminderFailed()

	if sess.Pathway() != "" {
		if err := c.mark(ctx, sess.Pathway(), item.GoalName, false); err != nil {
			c.logger.Error(ctx, "failed to revert reminder flag",
				"session_id", sess.ID(), "goal", item.GoalName, "error", err)
		}
	}

	return "", fmt.Errorf("%w: goal %q unacknowledged after %d attempts, %d queued reminders dropped",
		ErrDeliveryFailed, item.GoalName, c.opts.AckRetries+1, dropped)
}

// Reset abandons the cycle without touching the goal store.
func (c *Controller) Reset() {
	c.state = Idle
	c.backlog = nil
	c.current = nil
	c.sentAt = time.Time{}
	c.resends = 0
}

// next sends the head of the backlog or reports that the cycle is done.
// The goal is marked and persisted before its payload is returned.
func (c *Controller) next(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	if len(c.backlog) == 0 {
		c.Reset()
		return protocol.RespNoReminders, nil
	}

	head := c.backlog[0]
	c.backlog = c.backlog[1:]

	if err := c.mark(ctx, sess.Pathway(), head.GoalName, true); err != nil {
		c.Reset()
		return "", fmt.Errorf("mark reminder sent: %w", err)
	}

	c.current = &head
	c.state = AwaitingAck
	c.sentAt = now
	c.resends = 0
	c.opts.Recorder.ReminderSent()

	c.logger.Info(ctx, "reminder sent", "session_id", sess.ID(), "goal", head.GoalName, "queued", len(c.backlog))
	return protocol.ReminderPayload(head.Text), nil
}

// mark reloads the document and flips reminderSent on the first goal
// with the given name whose flag differs. A vanished goal is logged and
// not treated as an error.
func (c *Controller) mark(ctx context.Context, pathway, name string, sent bool) error {
	list, err := c.store.Load(ctx, pathway)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].Name == name && list[i].ReminderSent != sent {
			list[i].ReminderSent = sent
			return c.store.Save(ctx, pathway, list)
		}
	}

	c.logger.Warn(ctx, "goal to update not found", "goal", name, "reminder_sent", sent)
	return nil
}
