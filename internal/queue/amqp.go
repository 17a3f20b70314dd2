package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes and consumes JSON payloads on durable RabbitMQ queues
// named after their topic.
type AMQPQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	mu     sync.Mutex
	wg     sync.WaitGroup
	logger *zap.Logger
}

func DialAMQP(url string, log *zap.Logger) (*AMQPQueue, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, logger: log}, nil
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.declare(topic); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Subscribe consumes topic with manual acks. A handler error wrapping ErrDrop
// acks and discards; any other error requeues once and then gives up.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	queue, err := q.declare(topic)
	if err != nil {
		q.mu.Unlock()
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", topic, err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			q.deliver(topic, handler, d)
		}
	}()
	return nil
}

func (q *AMQPQueue) deliver(topic string, handler Handler, d amqp.Delivery) {
	err := handler(json.RawMessage(d.Body))
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, ErrDrop):
		q.logger.Warn("invalid message dropped", zap.String("topic", topic), zap.Error(err))
		d.Ack(false)
	default:
		q.logger.Warn("message failed",
			zap.String("topic", topic),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		d.Nack(false, !d.Redelivered)
	}
}

// NotifyClose reports broker-side connection loss.
func (q *AMQPQueue) NotifyClose() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Close shuts the channel and connection and waits for consumers to drain.
func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	chErr := q.ch.Close()
	connErr := q.conn.Close()
	q.mu.Unlock()
	q.wg.Wait()
	return errors.Join(chErr, connErr)
}

var (
	_ Queue = (*InMemoryQueue)(nil)
	_ Queue = (*AMQPQueue)(nil)
)
