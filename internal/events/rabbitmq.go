package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	publishTimeout = 5 * time.Second
	reconnectDelay = 5 * time.Second
)

var errNotConnected = errors.New("rabbitmq channel not available")

// RabbitMQPublisher publishes events to a durable topic exchange and reconnects
// in the background when the connection drops.
type RabbitMQPublisher struct {
	url      string
	exchange string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done chan struct{}
	once sync.Once
}

// NewRabbitMQPublisher dials the broker and declares the exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{url: url, exchange: exchange, done: make(chan struct{})}

	conn, channel, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn, p.channel = conn, channel

	go p.handleReconnect(conn)

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher initialized")
	return p, nil
}

func (p *RabbitMQPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, channel, nil
}

// Publish sends event with its Type as routing key.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.RLock()
	channel := p.channel
	p.mu.RUnlock()
	if channel == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    event.OccurredAt,
			MessageId:    uuid.New().String(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	log.Debug().
		Str("routing_key", event.Type).
		Str("exchange", p.exchange).
		Int("body_size", len(body)).
		Msg("event published")
	return nil
}

// handleReconnect waits for conn to close and dials again until it succeeds or Close is called.
func (p *RabbitMQPublisher) handleReconnect(conn *amqp.Connection) {
	for {
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-p.done:
			return
		case closeErr, ok := <-closed:
			if !ok || closeErr == nil {
				// graceful close
				return
			}
			log.Error().Err(closeErr).Msg("RabbitMQ connection closed, reconnecting")
		}

		p.mu.Lock()
		p.conn, p.channel = nil, nil
		p.mu.Unlock()

		for {
			select {
			case <-p.done:
				return
			case <-time.After(reconnectDelay):
			}
			newConn, channel, err := p.dial()
			if err != nil {
				log.Error().Err(err).Msg("RabbitMQ reconnect failed")
				continue
			}
			p.mu.Lock()
			p.conn, p.channel = newConn, channel
			p.mu.Unlock()
			conn = newConn
			log.Info().Msg("RabbitMQ reconnected")
			break
		}
	}
}

// HealthCheck reports whether the connection is up.
func (p *RabbitMQPublisher) HealthCheck() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil || p.conn.IsClosed() {
		return errNotConnected
	}
	return nil
}

// Close stops reconnecting and closes the connection.
func (p *RabbitMQPublisher) Close() error {
	p.once.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
