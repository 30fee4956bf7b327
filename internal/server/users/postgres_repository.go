package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/dmitrijs2005/goalkeeper/internal/dbx"
	"github.com/dmitrijs2005/goalkeeper/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Lookup loads every record whose name matches case-insensitively and
// checks the secret in Go, so bcrypt hashes and plain secrets are handled
// the same way as the JSON store.
func (r *PostgresRepository) Lookup(ctx context.Context, username, secret string) (*User, error) {
	query :=
		`SELECT username, password, pathway FROM users
		 WHERE lower(username) = lower($1)
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStoreIO, err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserName, &u.Password, &u.Pathway); err != nil {
			return nil, fmt.Errorf("%w: db error: %w", common.ErrorStoreIO, err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStoreIO, err)
	}

	if u := find(list, username, secret); u != nil {
		return u, nil
	}
	return nil, common.ErrorUnauthorized
}

// ReplaceAll swaps the whole table contents for list. It must run inside
// a transaction (see dbx.WithTx) to be atomic.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, list []User) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO users (username, password, pathway)
		 VALUES ($1, $2, $3)
		 `
	for _, u := range list {
		if _, err := r.db.ExecContext(ctx, query, u.UserName, u.Password, u.Pathway); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres opens the pgx-backed database and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Import copies every record of src into the PostgreSQL table, replacing
// what was there.
func Import(ctx context.Context, db *sql.DB, src *JSONRepository) (int, error) {
	list, err := src.All(ctx)
	if err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewPostgresRepository(tx).ReplaceAll(ctx, list)
	})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
