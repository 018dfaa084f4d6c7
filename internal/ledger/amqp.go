package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// AMQP publishes deltas as persistent messages to a durable queue for a
// downstream consumer to apply. The message id is "<match>:<user>" so the
// consumer can drop redeliveries.
type AMQP struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex
}

// DialAMQP connects to the broker and declares the delta queue
func DialAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQP{conn: conn, ch: ch, queue: q.Name}, nil
}

func (l *AMQP) ApplyPointDelta(ctx context.Context, d Delta) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	l.mu.Lock()
	defer l.mu.Unlock()

	err = l.ch.PublishWithContext(ctx,
		"",      // exchange
		l.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    d.MatchID + ":" + d.UserID,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish delta: %w", err)
	}
	return nil
}

// Close releases the channel and connection
func (l *AMQP) Close() error {
	l.ch.Close()
	return l.conn.Close()
}
