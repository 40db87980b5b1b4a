// Package receipt emits physical receipts for closed transactions. Emission
// is strictly best-effort: no printer, I/O errors, and full queues are all
// swallowed, because checkout must never be blocked or corrupted by hardware.
package receipt

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/pos-backend/internal/domain/transaction"
)

var _ transaction.ReceiptDispatcher = (*Emitter)(nil)

// Emitter prints receipts on a dedicated worker goroutine. Dispatch never
// blocks on printer I/O; jobs are queued and abandoned when the queue is full.
type Emitter struct {
	finder  Finder
	lg      *zap.Logger
	timeout time.Duration

	jobs chan transaction.Receipt
	wg   sync.WaitGroup

	stopOnce sync.Once
}

// NewEmitter creates an Emitter. timeout bounds a single print attempt
// (device discovery included); queueSize bounds the number of pending
// receipts before Dispatch starts dropping.
func NewEmitter(finder Finder, lg *zap.Logger, timeout time.Duration, queueSize int) *Emitter {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Emitter{
		finder:  finder,
		lg:      lg,
		timeout: timeout,
		jobs:    make(chan transaction.Receipt, queueSize),
	}
}

// Start launches the worker goroutine.
func (e *Emitter) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop closes the queue and waits for the in-flight job to finish. Pending
// queued receipts are still printed; Dispatch must not be called after Stop.
func (e *Emitter) Stop() {
	e.stopOnce.Do(func() {
		close(e.jobs)
	})
	e.wg.Wait()
}

// Dispatch queues a receipt for printing. When the queue is full the receipt
// is dropped: a stuck printer must not back-pressure the close path.
func (e *Emitter) Dispatch(r transaction.Receipt) {
	select {
	case e.jobs <- r:
	default:
		e.lg.Info("receipt queue full, dropping receipt",
			zap.String("transaction_id", r.TransactionID),
		)
	}
}

func (e *Emitter) run() {
	defer e.wg.Done()
	for r := range e.jobs {
		e.print(r)
	}
}

// print performs one emission attempt. Every failure path logs and returns;
// nothing propagates to the close operation that queued the job.
func (e *Emitter) print(r transaction.Receipt) {
	w, path, err := e.finder.Find()
	if err != nil {
		e.lg.Info("no receipt printer available",
			zap.String("transaction_id", r.TransactionID),
			zap.Error(err),
		)
		return
	}

	// Device writes cannot take a context, so the timeout closes the handle
	// out from under a stalled write instead. settled arbitrates the close:
	// whichever side flips it first owns it, so the device is closed exactly
	// once and a finished print is never closed mid-write.
	var settled atomic.Bool
	timer := time.AfterFunc(e.timeout, func() {
		if settled.CompareAndSwap(false, true) {
			_ = w.Close()
		}
	})

	err = Print(w, r)
	completed := settled.CompareAndSwap(false, true)
	timer.Stop()
	if completed {
		_ = w.Close()
	}

	switch {
	case err == nil:
		e.lg.Debug("receipt printed",
			zap.String("transaction_id", r.TransactionID),
			zap.String("printer", path),
		)
	case !completed:
		e.lg.Warn("receipt print timed out",
			zap.String("transaction_id", r.TransactionID),
			zap.String("printer", path),
			zap.Duration("timeout", e.timeout),
		)
	default:
		e.lg.Warn("receipt print failed",
			zap.String("transaction_id", r.TransactionID),
			zap.String("printer", path),
			zap.Error(err),
		)
	}
}
