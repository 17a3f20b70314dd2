package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/metrics"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
)

// publisher emits change events. Publishing never fails the calling operation.
type publisher struct {
	q   queue.Queue
	log *zap.Logger
}

func (p publisher) publish(ctx context.Context, topic string, ev queue.Event) {
	if p.q == nil {
		return
	}
	ev.At = time.Now()
	if u, ok := auth.UserFromContext(ctx); ok {
		ev.UserID = u.UserID
	}
	if err := p.q.Publish(topic, ev); err != nil {
		if errors.Is(err, queue.ErrNoSubscribers) {
			return
		}
		metrics.QueuePublishErrors.WithLabelValues(topic).Inc()
		p.log.Warn("⚠️ failed to publish event",
			zap.String("topic", topic),
			zap.String("event", ev.Type),
			zap.Int("entity_id", ev.EntityID),
			zap.Error(err),
		)
	}
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
