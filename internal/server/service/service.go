// Package service is the request dispatcher: it reads the mailbox, applies
// the login handshake, deadline and reminder flows to each client message,
// and writes the reply back.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/mailbox"
	"github.com/dmitrijs2005/goalkeeper/internal/protocol"
	"github.com/dmitrijs2005/goalkeeper/internal/server/deadlines"
	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
	"github.com/dmitrijs2005/goalkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/goalkeeper/internal/server/reminders"
	"github.com/dmitrijs2005/goalkeeper/internal/server/session"
	"github.com/dmitrijs2005/goalkeeper/internal/server/users"
)

// Options tune a Service.
type Options struct {
	// Legacy treats every mailbox value as an unframed message.
	Legacy bool
	// Location renders deadlines; nil means time.Local.
	Location *time.Location
	// TickInterval drives acknowledgement timeouts and metrics export.
	TickInterval time.Duration
	// MetricsFile, when set, receives a Prometheus textfile every tick.
	MetricsFile string
}

// Deps are the collaborators a Service dispatches to.
type Deps struct {
	Mailbox   mailbox.Mailbox
	Users     users.Repository
	Goals     goals.Store
	Reminders *reminders.Controller
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

// Service owns the session. All state is touched from a single goroutine:
// Handle and Tick must not be called concurrently.
type Service struct {
	box       mailbox.Mailbox
	users     users.Repository
	goals     goals.Store
	reminders *reminders.Controller
	metrics   *metrics.Metrics
	logger    logging.Logger
	opts      Options

	sess *session.Session
	// last is the most recent content read or written; identical content
	// is not handled twice unless its handling failed on the store.
	last string
	// lastReq is the request the latest reply answered. Re-sent reminders
	// reuse its framing.
	lastReq protocol.Message

	now func() time.Time
}

func New(d Deps, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 500 * time.Millisecond
	}
	return &Service{
		box:       d.Mailbox,
		users:     d.Users,
		goals:     d.Goals,
		reminders: d.Reminders,
		metrics:   d.Metrics,
		logger:    d.Logger.With("module", "service"),
		opts:      opts,
		sess:      session.New(),
		now:       time.Now,
	}
}

// Session exposes the current session, mainly for tests.
func (s *Service) Session() *session.Session { return s.sess }

// Handle processes one mailbox value.
func (s *Service) Handle(ctx context.Context, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == s.last {
		return
	}
	s.last = raw

	msg := protocol.Message{Body: raw}
	if !s.opts.Legacy {
		var err error
		msg, err = protocol.Decode(raw)
		if err != nil {
			s.metrics.CorruptMessage()
			s.logger.Warn(ctx, "ignoring corrupt mailbox content", "error", err)
			return
		}
	}

	if msg.From == protocol.RoleService {
		return
	}
	if msg.Framed() && msg == s.lastReq {
		return
	}

	reply := s.dispatch(ctx, msg.Body)
	if reply == "" {
		return
	}
	s.reply(ctx, msg, reply)
}

func (s *Service) reply(ctx context.Context, req protocol.Message, body string) {
	out := protocol.Message{Body: body}
	if req.Framed() {
		out.From = protocol.RoleService
		out.Seq = req.Seq
	}

	content := protocol.Encode(out)
	if err := s.box.Write(ctx, content); err != nil {
		s.logger.Error(ctx, "failed to write reply", "error", err)
		return
	}
	s.last = strings.TrimSpace(content)
	s.lastReq = req
}

func (s *Service) dispatch(ctx context.Context, body string) string {
	cmd := protocol.ParseCommand(body)
	s.metrics.Command(cmd.Kind.String())

	switch cmd.Kind {
	case protocol.CommandCredentials:
		return s.login(ctx, cmd)
	case protocol.CommandLoginAck:
		s.confirmLogin(ctx)
		return ""
	case protocol.CommandLogout:
		return s.logout(ctx)
	case protocol.CommandSendDeadlines:
		return s.sendDeadlines(ctx)
	case protocol.CommandSendReminders:
		return s.sendReminders(ctx)
	case protocol.CommandReminderAck:
		return s.ackReminder(ctx)
	default:
		s.logger.Debug(ctx, "ignoring unrecognised message", "state", s.sess.State().String())
		return ""
	}
}

func (s *Service) login(ctx context.Context, cmd protocol.Command) string {
	if s.sess.Active() {
		s.logger.Warn(ctx, "ignoring credentials while logged in", "session_id", s.sess.ID())
		return ""
	}

	u, err := s.users.Lookup(ctx, cmd.UserName, cmd.Secret)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		s.metrics.Login("denied")
		s.logger.Warn(ctx, "login rejected", "user", cmd.UserName)
		return protocol.RespLoginError
	case err != nil:
		s.metrics.Login("error")
		s.metrics.StoreError()
		s.logger.Error(ctx, "credential store failure", "user", cmd.UserName, "error", err)
		return protocol.RespLoginError
	case u.Pathway == "":
		s.metrics.Login("error")
		s.logger.Error(ctx, "user has no goal pathway", "user", u.UserName)
		return protocol.RespLoginError
	}

	location := s.goals.Locate(u.Pathway)
	if err := s.sess.BeginLogin(u.UserName, u.Pathway, location); err != nil {
		s.logger.Error(ctx, "cannot begin login", "error", err)
		return ""
	}
	s.reminders.Reset()

	s.logger.Info(ctx, "credentials accepted, waiting for confirmation",
		"session_id", s.sess.ID(), "user", u.UserName)
	return location
}

func (s *Service) confirmLogin(ctx context.Context) {
	if err := s.sess.ConfirmLogin(); err != nil {
		s.logger.Warn(ctx, "login confirmation rejected", "error", err)
		return
	}
	s.metrics.Login("ok")
	s.metrics.SessionActive(true)
	s.logger.Info(ctx, "user logged in", "session_id", s.sess.ID(), "user", s.sess.UserName())
}

func (s *Service) logout(ctx context.Context) string {
	id := s.sess.ID()
	had := s.sess.Logout()
	s.reminders.Reset()
	s.metrics.SessionActive(false)

	if had {
		s.logger.Info(ctx, "user logged out", "session_id", id)
	} else {
		s.logger.Debug(ctx, "logout without session")
	}
	return protocol.RespLogoutOK
}

func (s *Service) sendDeadlines(ctx context.Context) string {
	if !s.sess.Active() {
		return protocol.RespNoUser
	}

	list, err := s.goals.Load(ctx, s.sess.Pathway())
	if err != nil {
		s.storeFailure(ctx, "cannot load goals", err)
		return ""
	}

	items := deadlines.Collect(list, s.opts.Location, func(g goals.Goal) {
		if g.Deadline != "" {
			s.logger.Warn(ctx, "ignoring goal with invalid deadline",
				"session_id", s.sess.ID(), "goal", g.Name, "deadline", g.Deadline)
		}
	})
	s.logger.Info(ctx, "deadlines sent", "session_id", s.sess.ID(), "count", len(items))
	return deadlines.Render(items, s.opts.Location)
}

func (s *Service) sendReminders(ctx context.Context) string {
	if !s.sess.Active() {
		return protocol.RespNoUser
	}

	out, err := s.reminders.Start(ctx, s.sess, s.now())
	if err != nil {
		s.storeFailure(ctx, "reminder cycle aborted", err)
		return ""
	}
	return out
}

func (s *Service) ackReminder(ctx context.Context) string {
	if !s.sess.Active() {
		s.logger.Debug(ctx, "ignoring acknowledgement without session")
		return ""
	}

	out, err := s.reminders.Ack(ctx, s.sess, s.now())
	if errors.Is(err, reminders.ErrNoPendingReminder) {
		s.logger.Debug(ctx, "ignoring acknowledgement with nothing outstanding", "session_id", s.sess.ID())
		return ""
	}
	if err != nil {
		s.storeFailure(ctx, "reminder cycle aborted", err)
		return ""
	}
	return out
}

// storeFailure logs err and forgets the request, so the next read of the
// mailbox (a rewrite by the client or the tick) handles it again.
func (s *Service) storeFailure(ctx context.Context, msg string, err error) {
	if errors.Is(err, common.ErrorStoreIO) {
		s.metrics.StoreError()
	}
	s.logger.Error(ctx, msg, "session_id", s.sess.ID(), "error", err)
	s.last = ""
}

// Tick runs periodic work: acknowledgement timeouts and metrics export.
func (s *Service) Tick(ctx context.Context) {
	out, err := s.reminders.Tick(ctx, s.sess, s.now())
	if err != nil {
		s.logger.Error(ctx, "reminder delivery failed", "session_id", s.sess.ID(), "error", err)
	}
	if out != "" {
		s.reply(ctx, s.lastReq, out)
	}

	if s.opts.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.opts.MetricsFile); err != nil {
			s.logger.Warn(ctx, "cannot write metrics file", "path", s.opts.MetricsFile, "error", err)
		}
	}
}
