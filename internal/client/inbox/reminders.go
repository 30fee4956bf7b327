package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/dbx"
)

// Entry is one received reminder.
type Entry struct {
	ID         int64
	UserName   string
	Text       string
	ReceivedAt time.Time
}

type Repository interface {
	Add(ctx context.Context, e Entry) (int64, error)
	// List returns the user's reminders, newest first. A limit <= 0
	// returns all of them.
	List(ctx context.Context, userName string, limit int) ([]Entry, error)
	Clear(ctx context.Context, userName string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, e Entry) (int64, error) {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (username, text, received_at) VALUES (?, ?, ?)`,
		e.UserName, e.Text, e.ReceivedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to add reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read reminder id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userName string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, text, received_at FROM reminders
		WHERE username = ?
		ORDER BY received_at DESC, id DESC
		LIMIT ?`, userName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.UserName, &e.Text, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		e.ReceivedAt = time.Unix(0, ts)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminder rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, userName string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE username = ?`, userName); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}
	return nil
}
