package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
)

// CallRecorder is what the worker needs from the call history service.
type CallRecorder interface {
	RecordCall(ctx context.Context, in model.CallHistoryInput, source string) (*model.CallHistory, error)
}

// Worker records call results reported by the dialer.
type Worker struct {
	Recorder CallRecorder
	JobChan  <-chan model.CallHistoryInput
	Logger   *zap.Logger
}

// Constructor
func NewWorker(recorder CallRecorder, jobChan <-chan model.CallHistoryInput, log *zap.Logger) *Worker {
	return &Worker{
		Recorder: recorder,
		JobChan:  jobChan,
		Logger:   nopIfNil(log),
	}
}

// Start processes jobs until JobChan is closed or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.Logger.Warn("failed to record call result", zap.String("contact", job.ContactEmail), zap.Error(err))
			}
		}
	}
}

// Handle is a queue.Handler for TopicCallResults. Payloads that can never be
// recorded wrap queue.ErrDrop so the broker does not redeliver them.
func (w *Worker) Handle(payload any) error {
	var job model.CallHistoryInput
	if err := queue.Decode(payload, &job); err != nil {
		return err
	}
	return w.process(context.Background(), job)
}

func (w *Worker) process(ctx context.Context, job model.CallHistoryInput) error {
	h, err := w.Recorder.RecordCall(ctx, job, "worker")
	if err != nil {
		var verr *appErrors.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		}
		return err
	}
	w.Logger.Info("✅ call result recorded", zap.Int("id", h.ID), zap.String("status", h.Status))
	return nil
}
