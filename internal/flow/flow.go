// Package flow drives the multi-step duty assignment conversation:
// /assign, start date, end date, assignee handles, /finish.
//
// Every handler loads the user's session, applies one transition and saves
// the result before returning. Events of one user are serialized; events of
// different users run concurrently.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
	"github.com/hihikaAAa/duty-bot/internal/duty"
	"github.com/hihikaAAa/duty-bot/internal/session"
)

const defaultStoreTimeout = 5 * time.Second

type Flow struct {
	sessions session.Store
	duties   DutyRepository
	out      Messenger
	events   Publisher
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
	timeout  time.Duration
	locks    *keyedMutex
}

type Option func(*Flow)

func WithLogger(l *slog.Logger) Option { return func(f *Flow) { f.log = l } }

func WithPublisher(p Publisher) Option { return func(f *Flow) { f.events = p } }

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

func WithLocation(loc *time.Location) Option { return func(f *Flow) { f.loc = loc } }

// WithStoreTimeout bounds every SessionStore and DutyRepository call.
func WithStoreTimeout(d time.Duration) Option { return func(f *Flow) { f.timeout = d } }

func New(sessions session.Store, duties DutyRepository, out Messenger, opts ...Option) *Flow {
	f := &Flow{
		sessions: sessions,
		duties:   duties,
		out:      out,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		loc:      time.Local,
		timeout:  defaultStoreTimeout,
		locks:    newKeyedMutex(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) today() calendar.Date {
	return calendar.DateOf(f.now().In(f.loc))
}

func (f *Flow) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

func (f *Flow) load(ctx context.Context, userID int64) (*session.Session, error) {
	sctx, cancel := f.storeCtx(ctx)
	defer cancel()
	return f.sessions.Load(sctx, userID)
}

func (f *Flow) save(ctx context.Context, userID int64, s *session.Session) error {
	sctx, cancel := f.storeCtx(ctx)
	defer cancel()
	return f.sessions.Save(sctx, userID, s)
}

func (f *Flow) send(ctx context.Context, chatID int64, text string, w *calendar.Widget) int {
	id, err := f.out.Send(ctx, chatID, text, w)
	if err != nil {
		f.log.Warn("send message", slog.Int64("chat_id", chatID), slog.Any("err", err))
	}
	return id
}

func (f *Flow) edit(ctx context.Context, chatID int64, messageID int, text string, w *calendar.Widget) {
	if err := f.out.Edit(ctx, chatID, messageID, text, w); err != nil {
		f.log.Warn("edit message", slog.Int64("chat_id", chatID), slog.Int("message_id", messageID), slog.Any("err", err))
	}
}

// fail tells the user something went wrong and hands err back to the caller.
func (f *Flow) fail(ctx context.Context, chatID int64, err error) error {
	f.send(ctx, chatID, textFailure, nil)
	return err
}

// HandleCommand dispatches a slash command. Unknown commands are ignored.
func (f *Flow) HandleCommand(ctx context.Context, c Command) error {
	switch c.Name {
	case CmdStart:
		f.send(ctx, c.ChatID, textGreeting+"\n"+helpText(), nil)
		return nil
	case CmdHelp:
		f.send(ctx, c.ChatID, helpText(), nil)
		return nil
	case CmdDuties:
		return f.listDuties(ctx, c)
	}

	unlock := f.locks.Lock(c.UserID)
	defer unlock()
	switch c.Name {
	case CmdAssign:
		return f.begin(ctx, c)
	case CmdFinish:
		return f.finish(ctx, c)
	}
	return nil
}

func (f *Flow) begin(ctx context.Context, c Command) error {
	log := f.log.With(slog.Int64("user_id", c.UserID), slog.Int64("chat_id", c.ChatID))

	sctx, cancel := f.storeCtx(ctx)
	project, err := f.duties.ProjectByChat(sctx, c.ChatID)
	cancel()
	if errors.Is(err, duty.ErrNotFound) {
		f.send(ctx, c.ChatID, noProjectText(c.ChatID), nil)
		return nil
	}
	if err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: project for chat %d: %w", c.ChatID, err))
	}

	if prev, err := f.load(ctx, c.UserID); err == nil && prev.Stage != session.StageComplete {
		log.Info("replacing unfinished assignment", slog.String("stage", string(prev.Stage)))
	}

	today := f.today()
	w, step := calendar.New(today).Build(today)
	promptID, err := f.out.Send(ctx, c.ChatID, promptText(textStartPrompt, step), &w)
	if err != nil {
		return fmt.Errorf("flow: send start prompt: %w", err)
	}

	s := &session.Session{
		Stage:       session.StageAwaitingStart,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		PromptID:    promptID,
	}
	if err := f.save(ctx, c.UserID, s); err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: save session: %w", err))
	}
	log.Info("assignment started", slog.Int64("project_id", project.ID))
	return nil
}

// HandleWidget applies a calendar tap to the user's session.
func (f *Flow) HandleWidget(ctx context.Context, ev WidgetEvent) error {
	unlock := f.locks.Lock(ev.UserID)
	defer unlock()
	log := f.log.With(slog.Int64("user_id", ev.UserID), slog.Int64("chat_id", ev.ChatID))

	s, err := f.load(ctx, ev.UserID)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return f.fail(ctx, ev.ChatID, fmt.Errorf("flow: load session: %w", err))
	}

	var (
		floor  calendar.Date
		header string
	)
	switch s.Stage {
	case session.StageAwaitingStart:
		floor, header = f.today(), textStartPrompt
	case session.StageAwaitingEnd:
		floor, header = s.StartDate, textEndPrompt
	default:
		return nil
	}
	if ev.MessageID != s.PromptID {
		log.Debug("stale calendar", slog.Int("message_id", ev.MessageID), slog.Int("prompt_id", s.PromptID))
		return nil
	}

	dec, err := calendar.New(floor).Process(ev.Token)
	if err != nil {
		if !errors.Is(err, calendar.ErrNoop) {
			log.Warn("calendar token rejected", slog.String("token", ev.Token), slog.Any("err", err))
		}
		return nil
	}
	if dec.Kind == calendar.Navigate {
		f.edit(ctx, ev.ChatID, ev.MessageID, promptText(header, dec.Step), &dec.Widget)
		return nil
	}

	next := s.Clone()
	switch s.Stage {
	case session.StageAwaitingStart:
		next.StartDate = dec.Date
		next.Stage = session.StageAwaitingEnd
		// The start prompt keeps its keyboard until the end prompt exists.
		w, step := calendar.New(dec.Date).Build(dec.Date)
		promptID, err := f.out.Send(ctx, ev.ChatID, promptText(textEndPrompt, step), &w)
		if err != nil {
			return f.fail(ctx, ev.ChatID, fmt.Errorf("flow: send end prompt: %w", err))
		}
		f.edit(ctx, ev.ChatID, ev.MessageID, startChosenText(dec.Date), nil)
		next.PromptID = promptID
	case session.StageAwaitingEnd:
		next.EndDate = dec.Date
		next.Stage = session.StageAwaitingAssignees
		next.PromptID = 0
		f.edit(ctx, ev.ChatID, ev.MessageID, endChosenText(dec.Date), nil)
		f.send(ctx, ev.ChatID, textAskAssignees, nil)
	}

	if err := f.save(ctx, ev.UserID, next); err != nil {
		return f.fail(ctx, ev.ChatID, fmt.Errorf("flow: save session: %w", err))
	}
	log.Debug("date selected", slog.String("stage", string(next.Stage)), slog.String("date", dec.Date.String()))
	return nil
}

// HandleText collects assignee handles while the session waits for them.
// Text in any other stage is not part of the flow and is ignored.
func (f *Flow) HandleText(ctx context.Context, m TextMessage) error {
	unlock := f.locks.Lock(m.UserID)
	defer unlock()

	s, err := f.load(ctx, m.UserID)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return f.fail(ctx, m.ChatID, fmt.Errorf("flow: load session: %w", err))
	}
	if s.Stage != session.StageAwaitingAssignees {
		return nil
	}
	handles := ParseHandles(m.Text)
	if len(handles) == 0 {
		return nil
	}

	next := s.Clone()
	next.Assignees = append(next.Assignees, handles...)
	if err := f.save(ctx, m.UserID, next); err != nil {
		return f.fail(ctx, m.ChatID, fmt.Errorf("flow: save session: %w", err))
	}
	f.send(ctx, m.ChatID, runningListText(next.Assignees, next.StartDate, next.EndDate), nil)
	return nil
}

func (f *Flow) finish(ctx context.Context, c Command) error {
	log := f.log.With(slog.Int64("user_id", c.UserID), slog.Int64("chat_id", c.ChatID))

	s, err := f.load(ctx, c.UserID)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: load session: %w", err))
	}
	if s.Stage != session.StageAwaitingAssignees || len(s.Assignees) == 0 {
		return nil
	}

	sctx, cancel := f.storeCtx(ctx)
	defer cancel()
	ids := make([]int64, 0, len(s.Assignees))
	for _, h := range s.Assignees {
		id, err := f.duties.ResolveAssignee(sctx, h)
		if err != nil {
			return f.fail(ctx, c.ChatID, fmt.Errorf("flow: resolve assignee %q: %w", h, err))
		}
		ids = append(ids, id)
	}
	dutyID, err := f.duties.CreateDuty(sctx, s.ProjectID, ids, s.StartDate, s.EndDate)
	if err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: create duty: %w", err))
	}

	// COMPLETE is terminal: the session goes away as soon as the duty exists.
	if err := f.sessions.Delete(sctx, c.UserID); err != nil {
		log.Error("delete finished session", slog.Int64("duty_id", dutyID), slog.Any("err", err))
		done := s.Clone()
		done.Stage = session.StageComplete
		done.PromptID = 0
		if err := f.sessions.Save(sctx, c.UserID, done); err != nil {
			log.Error("mark session complete", slog.Int64("duty_id", dutyID), slog.Any("err", err))
		}
	}
	log.Info("duty assigned", slog.Int64("duty_id", dutyID), slog.Int("assignees", len(ids)))

	if f.events != nil {
		d := &duty.Duty{
			ID:        dutyID,
			ProjectID: s.ProjectID,
			Assignees: s.Assignees,
			StartDate: s.StartDate,
			EndDate:   s.EndDate,
			CreatedAt: f.now(),
		}
		if err := f.events.PublishDutyAssigned(ctx, d); err != nil {
			log.Warn("publish duty assigned", slog.Int64("duty_id", dutyID), slog.Any("err", err))
		}
	}

	f.send(ctx, c.ChatID, summaryText(dutyID, s.ProjectName, s.Assignees, s.StartDate, s.EndDate), nil)
	return nil
}

func (f *Flow) listDuties(ctx context.Context, c Command) error {
	sctx, cancel := f.storeCtx(ctx)
	defer cancel()
	project, err := f.duties.ProjectByChat(sctx, c.ChatID)
	if errors.Is(err, duty.ErrNotFound) {
		f.send(ctx, c.ChatID, noProjectText(c.ChatID), nil)
		return nil
	}
	if err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: project for chat %d: %w", c.ChatID, err))
	}
	ds, err := f.duties.ListUpcomingDuties(sctx, project.ID, f.today())
	if err != nil {
		return f.fail(ctx, c.ChatID, fmt.Errorf("flow: list duties: %w", err))
	}
	f.send(ctx, c.ChatID, dutiesText(project.Name, ds), nil)
	return nil
}
