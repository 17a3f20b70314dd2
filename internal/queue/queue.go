package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topics published by the API and consumed by the worker.
const (
	TopicCampaignEvents    = "campaign_events"
	TopicCallHistoryEvents = "call_history_events"
	TopicCallResults       = "call_results"
)

// ErrNoSubscribers is returned by InMemoryQueue.Publish when nobody listens on a topic.
var ErrNoSubscribers = errors.New("no subscribers")

// ErrDrop marks a payload that can never succeed. Handlers wrap it to skip retries.
var ErrDrop = errors.New("drop message")

// Handler processes one payload. A non-nil error triggers a retry unless it wraps ErrDrop.
type Handler func(payload any) error

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers each payload to every subscriber on its own goroutine,
// retrying failed deliveries with a linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     log,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w for topic %s", ErrNoSubscribers, topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go func(h Handler) {
			defer q.wg.Done()
			q.processJob(h, job)
		}(handler)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			q.Logger.Debug("job processed", zap.String("topic", job.Topic))
			return
		}
		if errors.Is(err, ErrDrop) {
			q.Logger.Warn("job dropped", zap.String("topic", job.Topic), zap.Error(err))
			return
		}

		job.RetryCount++
		q.Logger.Warn("job failed",
			zap.String("topic", job.Topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		if job.RetryCount > job.MaxRetries {
			q.Logger.Error("job permanently failed", zap.String("topic", job.Topic), zap.Int("attempts", job.RetryCount))
			return
		}

		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every in-flight delivery, retries included, has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// Decode converts a delivered payload into dst. In-process payloads arrive as
// Go values and broker payloads as raw JSON; both go through encoding/json.
func Decode(payload any, dst any) error {
	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDrop, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrDrop, err)
	}
	return nil
}
