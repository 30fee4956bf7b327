package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goalkeeper/internal/client/driver"
	"github.com/dmitrijs2005/goalkeeper/internal/client/inbox"
	"github.com/dmitrijs2005/goalkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and runs the login handshake. The previous
// user name is offered as the default; an empty answer accepts it.
//
// The password is wiped before returning. A rejected login is reported to
// the user and returned as driver.ErrLoginFailed.
func (a *App) Login(ctx context.Context) error {
	last := a.lastUser(ctx)

	prompt := "Enter username"
	if last != "" {
		prompt = fmt.Sprintf("Enter username [%s]", last)
	}
	userName, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if userName == "" {
		userName = last
	}
	if userName == "" {
		fmt.Fprintln(a.out, "Username is required.")
		return common.ErrorUnauthorized
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fmt.Fprintln(a.out, "Login request sent.")
	location, err := a.driver.Login(ctx, userName, string(password))
	if err != nil {
		a.report(ctx, "login", err)
		return err
	}

	a.userName = userName
	a.location = location
	if err := a.meta.Set(ctx, inbox.KeyLastUser, []byte(userName)); err != nil {
		a.logger.Warn(ctx, "failed to remember user name", "error", err)
	}

	fmt.Fprintf(a.out, "Path: %s\n", location)
	fmt.Fprintln(a.out, "Login confirmed.")
	return nil
}

// Logout ends the session on the service side and forgets the local user.
func (a *App) Logout(ctx context.Context) error {
	fmt.Fprintln(a.out, "Logout request sent.")
	if err := a.driver.Logout(ctx); err != nil {
		a.report(ctx, "logout", err)
		return err
	}
	a.userName = ""
	a.location = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) lastUser(ctx context.Context) string {
	v, err := a.meta.Get(ctx, inbox.KeyLastUser)
	if err != nil {
		a.logger.Warn(ctx, "failed to read last user name", "error", err)
		return ""
	}
	return string(v)
}

// report turns a driver error into a message for the user.
func (a *App) report(ctx context.Context, op string, err error) {
	switch {
	case errors.Is(err, driver.ErrLoginFailed):
		fmt.Fprintln(a.out, "Login failed.")
	case errors.Is(err, driver.ErrNoUser):
		a.userName = ""
		fmt.Fprintln(a.out, "Error: No user is logged in. Please log in first.")
	case errors.Is(err, driver.ErrNoResponse):
		fmt.Fprintln(a.out, "No response from the service. Is it running?")
	case errors.Is(err, context.Canceled):
	default:
		a.logger.Error(ctx, op+" failed", "error", err)
		fmt.Fprintf(a.out, "Error: %s\n", err)
	}
}
