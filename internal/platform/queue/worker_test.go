package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memStore struct {
	delayed []*job
	delays  []time.Duration
}

func (m *memStore) pop(_ context.Context) (*job, error) { return nil, nil }

func (m *memStore) pushDelayed(_ context.Context, j *job, delay time.Duration) error {
	m.delayed = append(m.delayed, j)
	m.delays = append(m.delays, delay)
	return nil
}

func (m *memStore) promoteDue(_ context.Context) error { return nil }

type stubHandler struct {
	generateErr  error
	generated    []uuid.UUID
	failed       []uuid.UUID
	failedReason string
}

func (h *stubHandler) Generate(_ context.Context, orderID uuid.UUID) error {
	h.generated = append(h.generated, orderID)
	return h.generateErr
}

func (h *stubHandler) MarkFailed(_ context.Context, orderID uuid.UUID, reason string) {
	h.failed = append(h.failed, orderID)
	h.failedReason = reason
}

func newTestWorker(h Handler, s store) *Worker {
	return &Worker{store: s, handler: h, logger: zerolog.Nop()}
}

func TestProcess_SuccessConsumesJob(t *testing.T) {
	s := &memStore{}
	h := &stubHandler{}
	w := newTestWorker(h, s)
	id := uuid.New()

	w.process(context.Background(), &job{OrderID: id})

	if len(h.generated) != 1 || h.generated[0] != id {
		t.Errorf("expected one generate call for %s, got %v", id, h.generated)
	}
	if len(s.delayed) != 0 || len(h.failed) != 0 {
		t.Error("successful job must not be requeued or failed")
	}
}

func TestProcess_FailureBacksOffDoubling(t *testing.T) {
	s := &memStore{}
	h := &stubHandler{generateErr: errors.New("upstream timeout")}
	w := newTestWorker(h, s)
	j := &job{OrderID: uuid.New()}

	// Drive the retry ladder by reprocessing the requeued job.
	for i := 0; i < maxRetries; i++ {
		w.process(context.Background(), j)
	}

	want := []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}
	if len(s.delays) != len(want) {
		t.Fatalf("expected %d requeues, got %d", len(want), len(s.delays))
	}
	for i, d := range want {
		if s.delays[i] != d {
			t.Errorf("retry %d: expected backoff %s, got %s", i+1, d, s.delays[i])
		}
	}
	if len(h.failed) != 0 {
		t.Error("order must not be failed while retries remain")
	}
}

func TestProcess_ExhaustedRetriesFailOrder(t *testing.T) {
	s := &memStore{}
	h := &stubHandler{generateErr: errors.New("upstream timeout")}
	w := newTestWorker(h, s)
	id := uuid.New()
	j := &job{OrderID: id}

	for i := 0; i <= maxRetries; i++ {
		w.process(context.Background(), j)
	}

	if len(h.failed) != 1 || h.failed[0] != id {
		t.Fatalf("expected order %s failed once, got %v", id, h.failed)
	}
	if !strings.Contains(h.failedReason, "after 4 attempts") {
		t.Errorf("unexpected failure reason %q", h.failedReason)
	}
	if len(s.delayed) != maxRetries {
		t.Errorf("expected %d requeues before exhaustion, got %d", maxRetries, len(s.delayed))
	}
}

type brokenStore struct{ memStore }

func (b *brokenStore) pushDelayed(context.Context, *job, time.Duration) error {
	return errors.New("redis unavailable")
}

func TestProcess_RequeueFailureFinalizesOrder(t *testing.T) {
	h := &stubHandler{generateErr: errors.New("upstream timeout")}
	w := newTestWorker(h, &brokenStore{})
	id := uuid.New()

	w.process(context.Background(), &job{OrderID: id})

	if len(h.failed) != 1 || h.failed[0] != id {
		t.Errorf("expected order failed when requeue is impossible, got %v", h.failed)
	}
}
