package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hihikaAAa/duty-bot/internal/duty"
)

// ResolveAssignee returns the id of handle, creating the row on first use.
// Handles compare case-insensitively.
func (d *DB) ResolveAssignee(ctx context.Context, handle string) (int64, error) {
	_, err := d.SQL.ExecContext(ctx, `
		INSERT INTO assignees (handle, created_at) VALUES (?, ?)
		ON CONFLICT(handle) DO NOTHING
	`, handle, Now())
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert assignee: %w", err)
	}
	a, err := d.GetAssigneeByHandle(ctx, handle)
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

func (d *DB) GetAssigneeByHandle(ctx context.Context, handle string) (*duty.Assignee, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT id, handle FROM assignees WHERE handle=?`, handle)
	a := &duty.Assignee{}
	if err := row.Scan(&a.ID, &a.Handle); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, duty.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
