package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run handles the mailbox until ctx is cancelled. Change notifications are
// coalesced into a one-slot channel and consumed, together with the tick,
// by a single dispatcher goroutine. The tick also re-reads the mailbox;
// content already handled is skipped.
func (s *Service) Run(ctx context.Context) error {
	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.box.Watch(gctx, notify)
	})

	g.Go(func() error {
		return s.loop(gctx, changes)
	})

	s.logger.Info(ctx, "service started", "legacy", s.opts.Legacy)
	err := g.Wait()
	s.logger.Info(ctx, "service stopped")
	return err
}

func (s *Service) loop(ctx context.Context, changes <-chan struct{}) error {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.readAndHandle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			s.readAndHandle(ctx)
		case <-ticker.C:
			// a notification lost between the first read and the
			// watcher starting is picked up here
			s.readAndHandle(ctx)
			s.Tick(ctx)
		}
	}
}

func (s *Service) readAndHandle(ctx context.Context) {
	content, err := s.box.Read(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.CorruptMessage()
			s.logger.Warn(ctx, "cannot read mailbox", "error", err)
		}
		return
	}
	s.Handle(ctx, content)
}
