package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// Publisher fans notification events out to RabbitMQ so other services
// can observe lending activity. Implements notify.EventPublisher.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

// NotificationMessage is the event body published to the exchange.
type NotificationMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	BookTitle string    `json:"book_title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange.
func NewPublisher(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	var conn *amqp.Connection
	var err error

	// Retry connection for up to 30 seconds
	for i := 0; i < 6; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Msgf("failed to connect to RabbitMQ, retrying in 5s... (%d/6)", i+1)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log,
	}, nil
}

// PublishNotification publishes a notification event with a routing key
// derived from its status, e.g. "notification.borrowed".
func (p *Publisher) PublishNotification(ctx context.Context, n domain.Notification) error {
	msg := NotificationMessage{
		ID:        n.ID,
		UserID:    n.UserID,
		Status:    string(n.Status),
		Message:   n.Message,
		BookTitle: n.BookTitle,
		CreatedAt: n.CreatedAt,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey(n.Status),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.log.Info().Str("notification_id", n.ID).Str("status", string(n.Status)).Msg("published notification event")
	return nil
}

func routingKey(status domain.NotificationStatus) string {
	switch status {
	case domain.StatusBorrowed:
		return "notification.borrowed"
	case domain.StatusReturned:
		return "notification.returned"
	case domain.StatusReturnApproved:
		return "notification.return_approved"
	case domain.StatusReserved:
		return "notification.reserved"
	case domain.StatusCancelled:
		return "notification.cancelled"
	default:
		return "notification.other"
	}
}

// Close closes the publisher connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
