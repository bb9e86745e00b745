// Package lib connects the assignment flow to Telegram.
package lib

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
	"github.com/hihikaAAa/duty-bot/internal/flow"
)

// Handler is the inbound side of the flow.
type Handler interface {
	HandleCommand(ctx context.Context, c flow.Command) error
	HandleText(ctx context.Context, m flow.TextMessage) error
	HandleWidget(ctx context.Context, ev flow.WidgetEvent) error
}

// botAPI is the part of *tgbotapi.BotAPI used for outbound calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var botCommands = []tgbotapi.BotCommand{
	{Command: flow.CmdAssign, Description: "назначить человека на дежурство"},
	{Command: flow.CmdFinish, Description: "сохранить назначение"},
	{Command: flow.CmdDuties, Description: "ближайшие дежурства"},
	{Command: flow.CmdHelp, Description: "показать список команд"},
}

type Bot struct {
	poller  *tgbotapi.BotAPI
	api     botAPI
	handler Handler
	log     *slog.Logger
}

func NewBot(api *tgbotapi.BotAPI, h Handler, log *slog.Logger) *Bot {
	return &Bot{poller: api, api: api, handler: h, log: log}
}

// Start long-polls updates until ctx is cancelled and returns once every
// in-flight update has been handled.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		b.log.Warn("set bot commands", slog.Any("err", err))
	}

	upd := tgbotapi.NewUpdate(0)
	upd.Timeout = 30
	updates := b.poller.GetUpdatesChan(upd)
	b.run(ctx, updates)
	b.poller.StopReceivingUpdates()
	return nil
}

// run dispatches each update on its own goroutine; the flow serializes
// updates of the same user.
func (b *Bot) run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	}
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	log := b.log.With(slog.Int64("user_id", m.From.ID), slog.Int64("chat_id", m.Chat.ID))

	if m.IsCommand() {
		c := flow.Command{Name: m.Command(), UserID: m.From.ID, ChatID: m.Chat.ID}
		if err := b.handler.HandleCommand(ctx, c); err != nil {
			log.Error("command failed", slog.String("command", c.Name), slog.Any("err", err))
		}
		return
	}
	if m.Text == "" {
		return
	}
	if err := b.handler.HandleText(ctx, flow.TextMessage{Text: m.Text, UserID: m.From.ID, ChatID: m.Chat.ID}); err != nil {
		log.Error("text failed", slog.Any("err", err))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.log.Debug("answer callback", slog.Any("err", err))
		}
	}()
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	if !calendar.IsToken(cq.Data) {
		b.log.Debug("unknown callback", slog.String("data", cq.Data))
		return
	}
	ev := flow.WidgetEvent{
		Token:     cq.Data,
		UserID:    cq.From.ID,
		ChatID:    cq.Message.Chat.ID,
		MessageID: cq.Message.MessageID,
	}
	if err := b.handler.HandleWidget(ctx, ev); err != nil {
		b.log.Error("calendar event failed", slog.Int64("user_id", ev.UserID), slog.Int64("chat_id", ev.ChatID), slog.Any("err", err))
	}
}
