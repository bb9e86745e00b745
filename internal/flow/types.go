package flow

import (
	"context"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
	"github.com/hihikaAAa/duty-bot/internal/duty"
)

const (
	CmdStart  = "start"
	CmdHelp   = "help"
	CmdAssign = "assign"
	CmdFinish = "finish"
	CmdDuties = "duties"
)

type Command struct {
	Name   string
	UserID int64
	ChatID int64
}

type TextMessage struct {
	Text   string
	UserID int64
	ChatID int64
}

// WidgetEvent is a tap on an inline calendar button.
type WidgetEvent struct {
	Token     string
	UserID    int64
	ChatID    int64
	MessageID int
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, w *calendar.Widget) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, w *calendar.Widget) error
}

type DutyRepository interface {
	ProjectByChat(ctx context.Context, chatID int64) (*duty.Project, error)
	ResolveAssignee(ctx context.Context, handle string) (int64, error)
	CreateDuty(ctx context.Context, projectID int64, assigneeIDs []int64, start, end calendar.Date) (int64, error)
	ListUpcomingDuties(ctx context.Context, projectID int64, from calendar.Date) ([]*duty.Duty, error)
}

// Publisher announces persisted duties to other services.
type Publisher interface {
	PublishDutyAssigned(ctx context.Context, d *duty.Duty) error
}
