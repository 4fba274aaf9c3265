// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"iotkit-rental-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const (
	RoutingSettlementCompleted = "return.settlement.completed"
	RoutingPenaltyPaid         = "penalty.paid"
	RoutingRefundProcessed     = "refund.processed"
	RoutingRefundRejected      = "refund.rejected"
)

type SettlementCompletedEvent struct {
	EventID         uuid.UUID `json:"event_id"`
	BorrowRequestID int32     `json:"borrow_request_id"`
	KitID           int32     `json:"kit_id"`
	Outcome         string    `json:"outcome"`
	PenaltyID       int32     `json:"penalty_id,omitempty"`
	PenaltyTotal    int64     `json:"penalty_total"`
	RefundAmount    int64     `json:"refund_amount"`
	BilledAccountID int32     `json:"billed_account_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type PenaltyPaidEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	PenaltyID int32     `json:"penalty_id"`
	AccountID int32     `json:"account_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type RefundEvent struct {
	EventID         uuid.UUID `json:"event_id"`
	BorrowRequestID int32     `json:"borrow_request_id"`
	AccountID       int32     `json:"account_id"`
	Amount          int64     `json:"amount"`
	Reason          string    `json:"reason,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// NewID returns a fresh event id.
func NewID() uuid.UUID {
	return uuid.New()
}

// FallbackPublisher drops events. It is used when RabbitMQ is not configured
// or unreachable at startup.
type FallbackPublisher struct{}

func (p *FallbackPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	logger.Debug("Event publish skipped", "component", "rabbitmq_producer", "mode", "fallback", "routing_key", routingKey)
	return nil
}

func (p *FallbackPublisher) Close() {}

// RabbitPublisher holds the RabbitMQ connection and channel for publishing messages.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewRabbitPublisher dials RabbitMQ and declares the durable topic exchange.
func NewRabbitPublisher(amqpURL, exchange string) (*RabbitPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	p := &RabbitPublisher{conn: conn, exchange: exchange}
	if err := p.reopenChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// New returns a RabbitPublisher when url is set and reachable, and a
// FallbackPublisher otherwise.
func New(amqpURL, exchange string) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		logger.Info("RabbitMQ not configured, events disabled")
		return &FallbackPublisher{}
	}
	p, err := NewRabbitPublisher(amqpURL, exchange)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, events disabled", "error", err)
		return &FallbackPublisher{}
	}
	logger.Info("RabbitMQ publisher connected", "exchange", exchange)
	return p
}

func (p *RabbitPublisher) reopenChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}
	p.channel = ch
	return nil
}

// Publish marshals body as JSON. A failed publish reopens the channel and
// retries once.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	logger.ExternalServiceCall("rabbitmq", "publish", "exchange", p.exchange, "routing_key", routingKey)
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err != nil {
		logger.Warn("Publish failed, reopening channel", "routing_key", routingKey, "error", err)
		if reErr := p.reopenChannel(); reErr != nil {
			logger.ExternalServiceResult("rabbitmq", "publish", reErr)
			return reErr
		}
		err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	}
	logger.ExternalServiceResult("rabbitmq", "publish", err, "routing_key", routingKey)
	return err
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
