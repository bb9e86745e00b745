package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hihikaAAa/duty-bot/internal/session"
)

// Sessions keeps assignment sessions in the sessions table so a restart does
// not lose a half-finished flow.
type Sessions struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

// Sessions returns the store; a zero ttl keeps sessions forever.
func (d *DB) Sessions(ttl time.Duration) *Sessions {
	return &Sessions{db: d, ttl: ttl, now: time.Now}
}

func (s *Sessions) Save(ctx context.Context, userID int64, sess *session.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("sqlite: marshal session: %w", err)
	}
	_, err = s.db.SQL.ExecContext(ctx, `
		INSERT INTO sessions (user_id, stage, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET stage=excluded.stage, payload=excluded.payload, updated_at=excluded.updated_at
	`, userID, string(sess.Stage), string(b), s.now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite: save session: %w", err)
	}
	return nil
}

// Load returns session.ErrNoSession for a missing, expired or unreadable row.
func (s *Sessions) Load(ctx context.Context, userID int64) (*session.Session, error) {
	row := s.db.SQL.QueryRowContext(ctx, `SELECT stage, payload, updated_at FROM sessions WHERE user_id=?`, userID)
	var (
		stage   string
		payload sql.NullString
		updated int64
	)
	if err := row.Scan(&stage, &payload, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNoSession
		}
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}
	updatedAt := time.Unix(updated, 0)
	if session.Expired(updatedAt, s.ttl, s.now()) {
		return nil, session.ErrNoSession
	}

	out := &session.Session{}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), out); err != nil {
			return nil, fmt.Errorf("%w: corrupt payload: %v", session.ErrNoSession, err)
		}
	}
	out.Stage = session.Stage(stage)
	if !out.Stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", session.ErrNoSession, stage)
	}
	out.UpdatedAt = updatedAt
	return out, nil
}

func (s *Sessions) Delete(ctx context.Context, userID int64) error {
	_, err := s.db.SQL.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions not touched since before.
func (s *Sessions) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.SQL.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
