package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"portfolio-server/internal/interfaces"
)

// ExchangePromptUpdates is the fanout exchange carrying prompt change events.
const ExchangePromptUpdates = "prompt_updates"

// RabbitMQPromptPublisher publishes prompt change events to RabbitMQ so any
// consumer caching active prompts can invalidate. The connection is owned
// by the caller; reconnects are not handled here.
type RabbitMQPromptPublisher struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

func NewRabbitMQPromptPublisher(conn *amqp091.Connection) (*RabbitMQPromptPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Durable fanout exchange; declaring an existing one is a no-op.
	err = ch.ExchangeDeclare(
		ExchangePromptUpdates, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("exchange", ExchangePromptUpdates).Msg("Failed to declare exchange")
		return nil, fmt.Errorf("failed to declare exchange %q: %w", ExchangePromptUpdates, err)
	}

	return &RabbitMQPromptPublisher{conn: conn, ch: ch}, nil
}

func (p *RabbitMQPromptPublisher) PublishPromptEvent(ctx context.Context, event interfaces.PromptEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangePromptUpdates,
		"",    // routing key unused for fanout
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		log.Error().Err(err).Str("agentType", event.AgentType.String()).Msg("Failed to publish prompt event")
		return fmt.Errorf("failed to publish prompt event: %w", err)
	}
	log.Debug().
		Str("eventType", string(event.EventType)).
		Str("agentType", event.AgentType.String()).
		Msg("Prompt event published")
	return nil
}

// Close releases the channel; the connection stays with its owner.
func (p *RabbitMQPromptPublisher) Close() error {
	return p.ch.Close()
}

// NoopPromptPublisher is used when no broker is configured. Events are
// logged and dropped.
type NoopPromptPublisher struct{}

func (NoopPromptPublisher) PublishPromptEvent(_ context.Context, event interfaces.PromptEvent) error {
	log.Debug().
		Str("eventType", string(event.EventType)).
		Str("agentType", event.AgentType.String()).
		Msg("No broker configured, dropping prompt event")
	return nil
}
