// Package driver is the client side of the mailbox protocol: it writes one
// request at a time and polls the mailbox for the service's answer.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/mailbox"
	"github.com/dmitrijs2005/goalkeeper/internal/protocol"
)

var (
	ErrLoginFailed = errors.New("login failed")
	ErrNoUser      = errors.New("no user logged in")
	// ErrNoResponse means the service did not answer within the response
	// timeout; it is most likely not running.
	ErrNoResponse         = errors.New("no response from service")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

type Options struct {
	PollInterval    time.Duration
	ResponseTimeout time.Duration
	// Legacy sends unframed messages; any new mailbox content is taken as
	// the answer.
	Legacy bool
	// AckHold is how long the mailbox is left untouched after the login
	// acknowledgement, which the service does not answer. It must cover
	// the service's slowest read path; zero means mailbox.MaxPollInterval.
	// A value below PollInterval is raised to it.
	AckHold time.Duration
	// Seed starts request numbering. Zero seeds from the wall clock so a
	// restarted client never repeats a number the service answered.
	Seed uint64
}

func DefaultOptions() Options {
	return Options{
		PollInterval:    500 * time.Millisecond,
		ResponseTimeout: 30 * time.Second,
		AckHold:         mailbox.MaxPollInterval,
	}
}

// Driver is safe for concurrent use; requests are serialised.
type Driver struct {
	box    mailbox.Mailbox
	logger logging.Logger
	opts   Options
	seq    *protocol.Sequencer

	mu sync.Mutex
}

func New(box mailbox.Mailbox, logger logging.Logger, opts Options) *Driver {
	def := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = def.ResponseTimeout
	}
	if opts.AckHold <= 0 {
		opts.AckHold = def.AckHold
	}
	if opts.AckHold < opts.PollInterval {
		opts.AckHold = opts.PollInterval
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	return &Driver{
		box:    box,
		logger: logger.With("module", "driver"),
		opts:   opts,
		seq:    protocol.NewSequencer(opts.Seed),
	}
}

// Login sends the credential pair and, once the service answers with the
// user's goal location, confirms with LOGIN_SUCCESSFUL.
func (d *Driver) Login(ctx context.Context, userName, secret string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.request(ctx, protocol.Credentials(userName, secret))
	if err != nil {
		return "", err
	}

	switch resp.Kind {
	case protocol.ResponseLoginError:
		return "", ErrLoginFailed
	case protocol.ResponseText:
		if resp.Text == "" {
			return "", fmt.Errorf("%w: empty location", ErrUnexpectedResponse)
		}
	default:
		return "", unexpected(resp)
	}

	if _, err := d.send(ctx, protocol.CmdLoginAck); err != nil {
		return "", err
	}
	// The acknowledgement is not answered. Hold the mailbox so the service
	// reads it before the next request replaces it.
	if err := d.settle(ctx); err != nil {
		return "", err
	}
	d.logger.Debug(ctx, "logged in", "location", resp.Text)
	return resp.Text, nil
}

func (d *Driver) Logout(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.request(ctx, protocol.CmdLogout)
	if err != nil {
		return err
	}
	if resp.Kind != protocol.ResponseLogoutOK {
		return unexpected(resp)
	}
	return nil
}

// Deadlines returns the rendered deadline list.
func (d *Driver) Deadlines(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.request(ctx, protocol.CmdSendDeadlines)
	if err != nil {
		return "", err
	}

	switch resp.Kind {
	case protocol.ResponseNoUser:
		return "", ErrNoUser
	case protocol.ResponseText:
		return resp.Text, nil
	default:
		return "", unexpected(resp)
	}
}

// Reminders runs one reminder cycle. Each reminder is passed to onReminder
// and acknowledged as soon as it returns nil; a non-nil error stops the
// cycle without acknowledging. It returns the number of reminders handled.
func (d *Driver) Reminders(ctx context.Context, onReminder func(text string) error) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.request(ctx, protocol.CmdSendReminders)
	n := 0
	for {
		if err != nil {
			return n, err
		}

		switch resp.Kind {
		case protocol.ResponseNoUser:
			return n, ErrNoUser
		case protocol.ResponseNoReminders:
			return n, nil
		case protocol.ResponseReminder:
			if err := onReminder(resp.Text); err != nil {
				return n, err
			}
			n++
			resp, err = d.request(ctx, protocol.CmdReminderAck)
		default:
			return n, unexpected(resp)
		}
	}
}

func (d *Driver) settle(ctx context.Context) error {
	t := time.NewTimer(d.opts.AckHold)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// send writes body and returns what was written.
func (d *Driver) send(ctx context.Context, body string) (protocol.Message, error) {
	msg := protocol.Message{Body: body}
	if !d.opts.Legacy {
		msg.From = protocol.RoleClient
		msg.Seq = d.seq.Next()
	}
	if err := d.box.Write(ctx, protocol.Encode(msg)); err != nil {
		return msg, fmt.Errorf("write request: %w", err)
	}
	return msg, nil
}

func (d *Driver) request(ctx context.Context, body string) (protocol.Response, error) {
	sent, err := d.send(ctx, body)
	if err != nil {
		return protocol.Response{}, err
	}

	reply, err := d.await(ctx, sent)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.ParseResponse(reply), nil
}

// await polls until the mailbox holds the answer to sent. Framed answers
// must come from the service and carry sent's sequence number; in legacy
// mode any content other than the request counts.
func (d *Driver) await(ctx context.Context, sent protocol.Message) (string, error) {
	written := protocol.Encode(sent)

	timeout := time.NewTimer(d.opts.ResponseTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timeout.C:
			return "", fmt.Errorf("%w within %s", ErrNoResponse, d.opts.ResponseTimeout)
		case <-ticker.C:
		}

		content, err := d.box.Read(ctx)
		if err != nil {
			d.logger.Debug(ctx, "mailbox read failed", "error", err)
			continue
		}

		if d.opts.Legacy {
			if content != "" && content != written {
				return content, nil
			}
			continue
		}

		msg, err := protocol.Decode(content)
		if err != nil {
			d.logger.Warn(ctx, "ignoring corrupt mailbox content", "error", err)
			continue
		}
		if msg.From == protocol.RoleService && msg.Seq == sent.Seq {
			return msg.Body, nil
		}
	}
}

func unexpected(resp protocol.Response) error {
	switch resp.Kind {
	case protocol.ResponseNoUser:
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, protocol.RespNoUser)
	case protocol.ResponseText:
		return fmt.Errorf("%w: %q", ErrUnexpectedResponse, resp.Text)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnexpectedResponse, resp.Kind)
	}
}
