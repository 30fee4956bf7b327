package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/client/inbox"
)

// historyLimit caps how many stored reminders History prints.
const historyLimit = 20

func (a *App) Deadlines(ctx context.Context) error {
	fmt.Fprintln(a.out, "Requesting deadlines...")
	text, err := a.driver.Deadlines(ctx)
	if err != nil {
		a.report(ctx, "deadlines", err)
		return err
	}
	fmt.Fprintln(a.out, "\n--- Deadlines ---")
	fmt.Fprintln(a.out, text)
	return nil
}

// Reminders walks through every pending reminder. Each one is printed and
// stored in the local inbox before it is acknowledged.
func (a *App) Reminders(ctx context.Context) error {
	fmt.Fprintln(a.out, "Requesting reminders...")
	n, err := a.driver.Reminders(ctx, func(text string) error {
		fmt.Fprintln(a.out, "\n--- Reminder ---")
		fmt.Fprintln(a.out, text)
		if _, err := a.inbox.Add(ctx, inbox.Entry{UserName: a.userName, Text: text}); err != nil {
			a.logger.Warn(ctx, "failed to store reminder", "error", err)
		}
		return nil
	})
	if err != nil {
		a.report(ctx, "reminders", err)
		return err
	}
	if n == 0 {
		fmt.Fprintln(a.out, "No pending reminders.")
	} else {
		fmt.Fprintf(a.out, "All reminders processed (%d).\n", n)
	}
	return nil
}

// History prints the reminders received by the current user, newest first.
func (a *App) History(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Log in to see your reminder history.")
		return nil
	}
	entries, err := a.inbox.List(ctx, a.userName, historyLimit)
	if err != nil {
		a.logger.Error(ctx, "history failed", "error", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No reminders received yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s\n", e.ReceivedAt.Format(time.DateTime), e.Text)
	}
	return nil
}

// ClearHistory removes the current user's stored reminders.
func (a *App) ClearHistory(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Log in to clear your reminder history.")
		return nil
	}
	if err := a.inbox.Clear(ctx, a.userName); err != nil {
		a.logger.Error(ctx, "clear history failed", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "History cleared.")
	return nil
}
