// Package server wires the goalkeeper service together: configuration,
// credential and goal stores, the mailbox, and the dispatcher loop, and
// runs it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/logging"
	"github.com/dmitrijs2005/goalkeeper/internal/mailbox"
	"github.com/dmitrijs2005/goalkeeper/internal/server/config"
	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
	"github.com/dmitrijs2005/goalkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/goalkeeper/internal/server/reminders"
	"github.com/dmitrijs2005/goalkeeper/internal/server/service"
	"github.com/dmitrijs2005/goalkeeper/internal/server/users"
)

var (
	openPostgres = users.OpenPostgres
	newS3Store   = goals.NewS3Store
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	box     *mailbox.FileMailbox
	service *service.Service
	db      *sql.DB
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (app *App, err error) {
	app = &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}

	mode, ok := mailbox.ParseWatchMode(c.WatchMode)
	if !ok {
		return nil, fmt.Errorf("unknown watch mode %q", c.WatchMode)
	}
	opts := mailbox.DefaultOptions()
	opts.Mode = mode
	opts.PollInterval = c.PollInterval

	app.box, err = mailbox.NewFileMailbox(c.MailboxPath, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("mailbox init error: %w", err)
	}

	repo, err := app.initUsers(ctx)
	if err != nil {
		return nil, err
	}

	store, err := app.initGoals(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	ctrl := reminders.NewController(store, logger, reminders.Options{
		AckTimeout: c.AckTimeout,
		AckRetries: c.AckRetries,
		Location:   loc,
		Recorder:   m,
	})

	app.service = service.New(service.Deps{
		Mailbox:   app.box,
		Users:     repo,
		Goals:     store,
		Reminders: ctrl,
		Metrics:   m,
		Logger:    logger,
	}, service.Options{
		Legacy:       c.Legacy,
		Location:     loc,
		TickInterval: c.TickInterval,
		MetricsFile:  c.MetricsFile,
	})

	return app, nil
}

func (app *App) initUsers(ctx context.Context) (users.Repository, error) {
	jsonRepo := users.NewJSONRepository(app.config.UsersFile)

	switch app.config.UsersBackend {
	case "json":
		return jsonRepo, nil
	case "postgres":
		db, err := openPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		if app.config.ImportUsers {
			n, err := users.Import(ctx, db, jsonRepo)
			if err != nil {
				return nil, fmt.Errorf("import users: %w", err)
			}
			app.logger.Info(ctx, "users imported", "count", n, "from", app.config.UsersFile)
		}
		return users.NewPostgresRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown users backend %q", app.config.UsersBackend)
	}
}

func (app *App) initGoals(ctx context.Context) (goals.Store, error) {
	switch app.config.GoalsBackend {
	case "file":
		return goals.NewFileStore(app.config.DataDir)
	case "s3":
		return newS3Store(ctx, goals.S3Config{
			Region:       app.config.S3Region,
			AccessKey:    app.config.S3RootUser,
			SecretKey:    app.config.S3RootPassword,
			BaseEndpoint: app.config.S3BaseEndpoint,
			Bucket:       app.config.S3Bucket,
			Prefix:       app.config.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown goals backend %q", app.config.GoalsBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run empties the mailbox and serves it until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.initSignalHandler(cancelFunc)

	if err := app.box.Reset(ctx); err != nil {
		return fmt.Errorf("reset mailbox: %w", err)
	}
	app.logger.Info(ctx, "Starting app...", "mailbox", app.box.Path())

	if err := app.service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, err.Error())
		return err
	}
	return nil
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "close database", "error", err)
		}
		app.db = nil
	}
}
