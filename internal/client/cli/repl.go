package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const menu = `Choose an option by entering the corresponding number or name:
1. login
2. logout
3. deadlines
4. reminders
5. exit
   history, clear, help`

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Deadlines(ctx context.Context) error
	Reminders(ctx context.Context) error
	History(ctx context.Context) error
	ClearHistory(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// Commands are accepted by menu number or by name. The loop exits on EOF,
// on "exit"/"quit", or when ctx is cancelled.
//
// Any errors returned by command handlers are ignored here; handlers
// report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gk %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "help", "?":
			printlnFn(menu)
			if !a.isLoggedIn() {
				printlnFn("Not logged in: start with login.")
			}

		case "1", "login":
			_ = a.Login(ctx)

		case "2", "logout":
			_ = a.Logout(ctx)

		case "3", "deadlines":
			_ = a.Deadlines(ctx)

		case "4", "reminders":
			_ = a.Reminders(ctx)

		case "history":
			_ = a.History(ctx)

		case "clear":
			_ = a.ClearHistory(ctx)

		case "5", "exit", "quit":
			printlnFn("Exiting...")
			return

		default:
			printlnFn("Invalid choice. Try again.")
		}
	}
}
