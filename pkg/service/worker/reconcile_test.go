package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/service/worker"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type mockReconciler struct {
	calls     atomic.Int64
	bootstrap func(ctx context.Context) error
}

func (m *mockReconciler) Bootstrap(ctx context.Context) error {
	m.calls.Add(1)
	if m.bootstrap != nil {
		return m.bootstrap(ctx)
	}
	return nil
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReconcileWorker_PeriodicPasses(t *testing.T) {
	mock := &mockReconciler{}
	w := worker.NewReconcileWorker(mock, 20*time.Millisecond)

	gt.NoError(t, w.Start(t.Context())).Required()
	defer w.Stop()

	eventually(t, func() bool { return mock.calls.Load() >= 3 })
	gt.Number(t, w.Failures()).Equal(0)
	gt.B(t, w.Runs() >= 3).True()
}

func TestReconcileWorker_NoImmediatePass(t *testing.T) {
	mock := &mockReconciler{}
	w := worker.NewReconcileWorker(mock, time.Hour)

	gt.NoError(t, w.Start(t.Context())).Required()
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	gt.Number(t, mock.calls.Load()).Equal(0)
}

func TestReconcileWorker_ContinuesAfterFailure(t *testing.T) {
	mock := &mockReconciler{
		bootstrap: func(ctx context.Context) error {
			return goerr.New("discord unavailable")
		},
	}
	w := worker.NewReconcileWorker(mock, 20*time.Millisecond)

	gt.NoError(t, w.Start(t.Context())).Required()
	defer w.Stop()

	eventually(t, func() bool { return w.Failures() >= 2 })
}

func TestReconcileWorker_StopsCleanly(t *testing.T) {
	mock := &mockReconciler{}
	w := worker.NewReconcileWorker(mock, 10*time.Millisecond)
	gt.NoError(t, w.Start(t.Context())).Required()

	time.Sleep(30 * time.Millisecond)

	stopStart := time.Now()
	w.Stop()
	gt.B(t, time.Since(stopStart) < time.Second).True()

	calls := mock.calls.Load()
	time.Sleep(30 * time.Millisecond)
	gt.Number(t, mock.calls.Load()).Equal(calls)
}

func TestReconcileWorker_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	w := worker.NewReconcileWorker(&mockReconciler{}, 10*time.Millisecond)
	gt.NoError(t, w.Start(ctx)).Required()

	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestReconcileWorker_RejectsZeroInterval(t *testing.T) {
	w := worker.NewReconcileWorker(&mockReconciler{}, 0)
	gt.Error(t, w.Start(t.Context()))
}
