package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	defaultExchange = "decision_exchange"
	dialAttempts    = 5
)

// RabbitMQConfig holds the configuration for RabbitMQ
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// RabbitMQPublisher publishes JSON events to a topic exchange.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	config  RabbitMQConfig
}

// NewRabbitMQPublisher dials with retry and declares the exchange.
func NewRabbitMQPublisher(ctx context.Context, config RabbitMQConfig) (*RabbitMQPublisher, error) {
	config.Exchange = ensureExchange(config.Exchange)

	conn, err := dialWithRetry(ctx, config.URL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		config.Exchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", config.Exchange, err)
	}
	log.Info().Str("exchange", config.Exchange).Msg("events: exchange declared")

	return &RabbitMQPublisher{
		conn:    conn,
		channel: channel,
		config:  config,
	}, nil
}

func dialWithRetry(ctx context.Context, url string) (*amqp.Connection, error) {
	var err error
	for i := 0; i < dialAttempts; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}

		retryTime := time.Duration(i*i)*time.Second + time.Second
		log.Warn().Err(err).Dur("retry_in", retryTime).Msg("events: failed to connect to RabbitMQ")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryTime):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
}

// Publish marshals event as JSON and sends it with persistent delivery.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.config.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %s with routing key %s: %w",
			p.config.Exchange, routingKey, err)
	}

	log.Debug().
		Str("exchange", p.config.Exchange).
		Str("routing_key", routingKey).
		Msg("events: published")
	return nil
}

// Close closes the RabbitMQ channel and connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func ensureExchange(name string) string {
	if name == "" {
		return defaultExchange
	}
	return name
}

var _ Publisher = (*RabbitMQPublisher)(nil)
