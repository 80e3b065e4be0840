package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxRetries  = 3
	baseBackoff = 10 * time.Second
)

// Handler executes one generation attempt and finalizes exhausted
// orders.
type Handler interface {
	Generate(ctx context.Context, orderID uuid.UUID) error
	MarkFailed(ctx context.Context, orderID uuid.UUID, reason string)
}

// store is the job plumbing the worker drives; Queue is the production
// implementation.
type store interface {
	pop(ctx context.Context) (*job, error)
	pushDelayed(ctx context.Context, j *job, delay time.Duration) error
	promoteDue(ctx context.Context) error
}

// Worker drains the generation queue. Each job gets maxRetries retries
// with doubling backoff before the order is finalized as failed.
type Worker struct {
	store   store
	handler Handler
	logger  zerolog.Logger
}

func NewWorker(q *Queue, handler Handler, logger zerolog.Logger) *Worker {
	return &Worker{store: q, handler: handler, logger: logger}
}

// Run consumes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().Msg("generation worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info().Msg("generation worker stopped")
			return
		}
		if err := w.store.promoteDue(ctx); err != nil {
			w.logger.Error().Err(err).Msg("promote delayed jobs")
		}
		j, err := w.store.pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("pop generation job")
			time.Sleep(popTimeout)
			continue
		}
		if j == nil {
			continue
		}
		w.process(ctx, j)
	}
}

func (w *Worker) process(ctx context.Context, j *job) {
	err := w.handler.Generate(ctx, j.OrderID)
	if err == nil {
		return
	}
	w.logger.Warn().Err(err).
		Str("order_id", j.OrderID.String()).
		Int("attempt", j.Attempt+1).
		Msg("generation attempt failed")

	if j.Attempt >= maxRetries {
		w.handler.MarkFailed(ctx, j.OrderID,
			fmt.Sprintf("care plan generation failed after %d attempts: %v", j.Attempt+1, err))
		return
	}

	j.Attempt++
	delay := backoffFor(j.Attempt)
	if derr := w.store.pushDelayed(ctx, j, delay); derr != nil {
		// The retry is lost; fail the order rather than stranding it in
		// processing forever.
		w.logger.Error().Err(derr).Str("order_id", j.OrderID.String()).Msg("requeue generation job")
		w.handler.MarkFailed(ctx, j.OrderID,
			fmt.Sprintf("care plan generation could not be retried: %v", err))
	}
}

// backoffFor doubles per retry: 10s, 20s, 40s.
func backoffFor(attempt int) time.Duration {
	return baseBackoff << (attempt - 1)
}
