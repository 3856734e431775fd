package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/utils/errutil"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Reconciler brings every managed posting in line with its content
type Reconciler interface {
	Bootstrap(ctx context.Context) error
}

// ReconcileWorker re-runs reconciliation periodically so that postings
// deleted or edited by hand are repaired without a reconnect.
//
// Architecture assumptions:
// - Single bot instance (no distributed locking)
// - The gateway Ready handler performs the initial pass, the worker only
//   covers the intervals after it
type ReconcileWorker struct {
	reconciler Reconciler
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	runs     atomic.Int64
	failures atomic.Int64
}

// NewReconcileWorker creates a new worker reconciling every interval
func NewReconcileWorker(reconciler Reconciler, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background loop. It does not block.
func (w *ReconcileWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("reconcile interval must be positive", goerr.V("interval", w.interval.String()))
	}

	logging.Default().Info("Reconcile worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the running pass to finish
func (w *ReconcileWorker) Stop() {
	logging.Default().Info("Reconcile worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Reconcile worker stopped")
}

// Runs returns how many passes were executed
func (w *ReconcileWorker) Runs() int64 {
	return w.runs.Load()
}

// Failures returns how many passes reported an error
func (w *ReconcileWorker) Failures() int64 {
	return w.failures.Load()
}

func (w *ReconcileWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reconcile(ctx)

		case <-w.stopCh:
			logging.Default().Info("Reconcile worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Reconcile worker context cancelled")
			return
		}
	}
}

func (w *ReconcileWorker) reconcile(ctx context.Context) {
	startTime := time.Now()
	w.runs.Add(1)

	if err := w.reconciler.Bootstrap(ctx); err != nil {
		// next tick retries
		w.failures.Add(1)
		_ = errutil.Handle(ctx, err, "periodic reconciliation failed")
		return
	}

	logging.Default().Info("Periodic reconciliation completed", "duration", time.Since(startTime).String())
}
