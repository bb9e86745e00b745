package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hihikaAAa/duty-bot/internal/duty"
)

func (d *DB) CreateProject(ctx context.Context, name string, chatID int64) (int64, error) {
	res, err := d.SQL.ExecContext(ctx, `INSERT INTO projects(name, chat_id, created_at) VALUES(?,?,?)`, name, chatID, Now())
	if err != nil {
		return 0, fmt.Errorf("sqlite: create project: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

func (d *DB) ListProjects(ctx context.Context) ([]*duty.Project, error) {
	rows, err := d.SQL.QueryContext(ctx, `SELECT id, name, chat_id FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*duty.Project
	for rows.Next() {
		p := &duty.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.ChatID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) GetProject(ctx context.Context, id int64) (*duty.Project, error) {
	return d.scanProject(d.SQL.QueryRowContext(ctx, `SELECT id, name, chat_id FROM projects WHERE id=?`, id))
}

// ProjectByChat returns the project the chat is bound to, or duty.ErrNotFound.
func (d *DB) ProjectByChat(ctx context.Context, chatID int64) (*duty.Project, error) {
	return d.scanProject(d.SQL.QueryRowContext(ctx, `SELECT id, name, chat_id FROM projects WHERE chat_id=?`, chatID))
}

func (d *DB) scanProject(row *sql.Row) (*duty.Project, error) {
	p := &duty.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.ChatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, duty.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}
