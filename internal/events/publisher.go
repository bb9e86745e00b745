// Package events publishes domain events about persisted duties to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/hihikaAAa/duty-bot/internal/duty"
)

const producer = "duty-bot"

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp091.Connection
	open     func() (channel, error)
	exchange string
	log      *slog.Logger
}

// New dials url and declares a durable topic exchange.
func New(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}

	p := &Publisher{conn: conn, exchange: exchange, log: logger}
	p.open = func() (channel, error) { return conn.Channel() }
	return p, nil
}

func (p *Publisher) PublishDutyAssigned(ctx context.Context, d *duty.Duty) error {
	env := Envelope{
		Meta: newMeta(TypeDutyAssigned),
		Data: DutyAssigned{
			DutyID:    d.ID,
			ProjectID: d.ProjectID,
			StartDate: d.StartDate.String(),
			EndDate:   d.EndDate.String(),
			Assignees: d.Assignees,
		},
	}
	return p.Publish(ctx, TypeDutyAssigned, env)
}

func (p *Publisher) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("events: channel: %w", err)
	}
	defer ch.Close()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	msgID := msg.Meta.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	cid := msgID
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msgID,
		CorrelationId: cid,
		Timestamp:     msg.Meta.Time,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", key, err)
	}
	p.log.Info("published", slog.String("key", key), slog.String("exchange", p.exchange))
	return nil
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func newMeta(typ string) Meta {
	id := uuid.NewString()
	prod := producer
	return Meta{ID: id, CorrelationID: &id, Producer: &prod, Time: time.Now().UTC(), Type: typ}
}
