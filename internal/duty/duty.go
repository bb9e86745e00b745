// Package duty holds the persisted records of the duty scheduler.
package duty

import (
	"errors"
	"time"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
)

var ErrNotFound = errors.New("not found")

type Project struct {
	ID     int64
	Name   string
	ChatID int64
}

type Assignee struct {
	ID     int64
	Handle string
}

// Duty is immutable once written. Assignees keeps arrival order and may
// contain the same handle more than once.
type Duty struct {
	ID        int64
	ProjectID int64
	Assignees []string
	StartDate calendar.Date
	EndDate   calendar.Date
	CreatedAt time.Time
}
