package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
	"github.com/hihikaAAa/duty-bot/internal/duty"
)

var ErrNoAssignees = errors.New("sqlite: duty needs at least one assignee")

// CreateDuty writes the duty and its ordered assignee list in one transaction.
func (d *DB) CreateDuty(ctx context.Context, projectID int64, assigneeIDs []int64, start, end calendar.Date) (int64, error) {
	if len(assigneeIDs) == 0 {
		return 0, ErrNoAssignees
	}
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO duties (project_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?)
	`, projectID, start.String(), end.String(), Now())
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert duty: %w", err)
	}
	id, _ := res.LastInsertId()
	for pos, aid := range assigneeIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO duty_assignees (duty_id, position, assignee_id) VALUES (?, ?, ?)`, id, pos, aid)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert duty assignee: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit duty: %w", err)
	}
	return id, nil
}

func (d *DB) ListDuties(ctx context.Context, projectID int64) ([]*duty.Duty, error) {
	return d.queryDuties(ctx, `WHERE project_id=? ORDER BY start_date, id`, projectID)
}

// ListUpcomingDuties returns duties of the project that have not ended before from.
func (d *DB) ListUpcomingDuties(ctx context.Context, projectID int64, from calendar.Date) ([]*duty.Duty, error) {
	return d.queryDuties(ctx, `WHERE project_id=? AND end_date>=? ORDER BY start_date, id`, projectID, from.String())
}

func (d *DB) queryDuties(ctx context.Context, where string, args ...any) ([]*duty.Duty, error) {
	rows, err := d.SQL.QueryContext(ctx, `SELECT id, project_id, start_date, end_date, created_at FROM duties `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*duty.Duty
	for rows.Next() {
		var (
			x          duty.Duty
			start, end string
			created    time.Time
		)
		if err := rows.Scan(&x.ID, &x.ProjectID, &start, &end, &created); err != nil {
			return nil, err
		}
		if x.StartDate, err = calendar.ParseDate(start); err != nil {
			return nil, err
		}
		if x.EndDate, err = calendar.ParseDate(end); err != nil {
			return nil, err
		}
		x.CreatedAt = created
		out = append(out, &x)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// One connection: the cursor must be released before the handle lookups.
	rows.Close()

	for _, x := range out {
		hs, err := d.dutyHandles(ctx, x.ID)
		if err != nil {
			return nil, err
		}
		x.Assignees = hs
	}
	return out, nil
}

func (d *DB) dutyHandles(ctx context.Context, dutyID int64) ([]string, error) {
	rows, err := d.SQL.QueryContext(ctx, `
		SELECT a.handle
		FROM duty_assignees da
		JOIN assignees a ON a.id = da.assignee_id
		WHERE da.duty_id = ?
		ORDER BY da.position
	`, dutyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
