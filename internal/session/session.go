// Package session describes the partial state of one user's in-progress duty
// assignment and the stores that keep it between events.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
)

var ErrNoSession = errors.New("session: no active session")

type Stage string

const (
	StageAwaitingStart     Stage = "awaiting_start"
	StageAwaitingEnd       Stage = "awaiting_end"
	StageAwaitingAssignees Stage = "awaiting_assignees"
	StageComplete          Stage = "complete"
)

func (s Stage) Valid() bool {
	switch s {
	case StageAwaitingStart, StageAwaitingEnd, StageAwaitingAssignees, StageComplete:
		return true
	}
	return false
}

type Session struct {
	Stage       Stage         `json:"stage"`
	ProjectID   int64         `json:"project_id"`
	ProjectName string        `json:"project_name"`
	StartDate   calendar.Date `json:"start_date"`
	EndDate     calendar.Date `json:"end_date"`
	Assignees   []string      `json:"assignees"`
	// PromptID is the message carrying the live calendar widget.
	PromptID  int       `json:"prompt_id"`
	UpdatedAt time.Time `json:"-"`
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	if s.Assignees != nil {
		c.Assignees = append([]string(nil), s.Assignees...)
	}
	return &c
}

// Store keeps at most one session per user. Load returns ErrNoSession when
// there is none.
type Store interface {
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, userID int64, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
