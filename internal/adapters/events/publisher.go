package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"hotelier/internal/domain"
)

// Publisher emits listing change events to a topic exchange. Downstream
// consumers (search indexers, cache warmers) are free to drop messages;
// delivery is best-effort and callers log rather than fail on error.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

func New(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, "listing."+ev.Kind, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
