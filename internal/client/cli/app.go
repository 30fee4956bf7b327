package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/goalkeeper/internal/client/config"
	"github.com/dmitrijs2005/goalkeeper/internal/client/driver"
	"github.com/dmitrijs2005/goalkeeper/internal/client/inbox"
	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/mailbox"
)

// protocolDriver is the part of driver.Driver the App uses.
type protocolDriver interface {
	Login(ctx context.Context, userName, secret string) (string, error)
	Logout(ctx context.Context) error
	Deadlines(ctx context.Context) (string, error)
	Reminders(ctx context.Context, onReminder func(text string) error) (int, error)
}

type metadataStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	driver   protocolDriver
	inbox    inbox.Repository
	meta     metadataStore
	db       *sql.DB
	userName string
	location string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(c.LogLevel))

	opts := mailbox.DefaultOptions()
	opts.Mode = mailbox.WatchPoll
	opts.PollInterval = c.PollInterval

	box, err := mailbox.NewFileMailbox(c.MailboxPath, opts, logger)
	if err != nil {
		return nil, err
	}

	db, err := inbox.Open(ctx, c.InboxDSN)
	if err != nil {
		logger.Error(ctx, "error initializing inbox", "error", err)
		return nil, err
	}

	d := driver.New(box, logger, driver.Options{
		PollInterval:    c.PollInterval,
		ResponseTimeout: c.ResponseTimeout,
		Legacy:          c.Legacy,
	})

	return &App{
		config: c,
		logger: logger.With("module", "cli"),
		driver: d,
		inbox:  inbox.NewSQLiteRepository(db),
		meta:   inbox.NewMetadataRepository(db),
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run shows the menu and serves commands until the user exits or stdin is
// closed.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Welcome to goalkeeper (type 'help' for commands)")
	printlnFn(menu)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(logged out)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing inbox", "error", err)
		}
	}
}
