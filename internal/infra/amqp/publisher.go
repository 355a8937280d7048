package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"quest-bot/internal/app"
)

const (
	routingKeyDirect       = "quest.direct"
	routingKeyParticipants = "quest.broadcast.participants"
	routingKeyChannels     = "quest.broadcast.channels"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher decorates a NotificationGateway and mirrors every notification as
// an event on a topic exchange, so other consumers (web leaderboard, archive)
// can follow the quest. Publishing is best-effort; delivery through the
// wrapped gateway decides the result.
type Publisher struct {
	next     app.NotificationGateway
	channel  Channel
	exchange string
	now      func() time.Time
}

type event struct {
	Type           string    `json:"type"`
	ParticipantIDs []string  `json:"participantIds,omitempty"`
	Text           string    `json:"text"`
	At             time.Time `json:"at"`
}

func NewPublisher(next app.NotificationGateway, channel Channel, exchange string) *Publisher {
	return &Publisher{next: next, channel: channel, exchange: exchange, now: time.Now}
}

// Dial connects to the broker and declares the topic exchange.
func Dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (p *Publisher) DirectMessage(ctx context.Context, participantID, text string) error {
	if err := p.next.DirectMessage(ctx, participantID, text); err != nil {
		return err
	}
	p.publish(ctx, routingKeyDirect, event{Type: "direct", ParticipantIDs: []string{participantID}, Text: text})
	return nil
}

func (p *Publisher) BroadcastToParticipants(ctx context.Context, participantIDs []string, text string) error {
	if err := p.next.BroadcastToParticipants(ctx, participantIDs, text); err != nil {
		return err
	}
	p.publish(ctx, routingKeyParticipants, event{Type: "broadcast_participants", ParticipantIDs: participantIDs, Text: text})
	return nil
}

func (p *Publisher) BroadcastToChannels(ctx context.Context, text string) error {
	if err := p.next.BroadcastToChannels(ctx, text); err != nil {
		return err
	}
	p.publish(ctx, routingKeyChannels, event{Type: "broadcast_channels", Text: text})
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, ev event) {
	ev.At = p.now()
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENT] marshal %s: %v", key, err)
		return
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		log.Printf("[EVENT] publish %s: %v", key, err)
	}
}
