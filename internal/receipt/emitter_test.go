package receipt

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/pos-backend/internal/domain/transaction"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

type fakeFinder struct {
	w   io.WriteCloser
	err error
}

func (f *fakeFinder) Find() (io.WriteCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.w, "/dev/fake0", nil
}

func sampleReceipt() transaction.Receipt {
	return transaction.Receipt{
		TransactionID: "tx-1",
		Lines: []transaction.ReceiptLine{
			{Name: "Espresso", Quantity: 2, UnitPrice: decimal.RequireFromString("3.50")},
			{Name: "Croissant", Quantity: 1, UnitPrice: decimal.RequireFromString("2.25")},
		},
		Paid:   decimal.RequireFromString("10.00"),
		Change: decimal.RequireFromString("0.75"),
	}
}

func TestPrintFormatsReceipt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, sampleReceipt()))

	out := buf.String()
	assert.Contains(t, out, "RECEIPT\n")
	assert.Contains(t, out, "Espresso")
	assert.Contains(t, out, " 2 x")
	assert.Contains(t, out, "3.50")
	// Grand total is derived from the lines: 2*3.50 + 1*2.25.
	assert.Contains(t, out, "TOTAL:")
	assert.Contains(t, out, "9.25")
	assert.Contains(t, out, "Paid: 10.00\n")
	assert.Contains(t, out, "Change: 0.75\n")
	// Stream ends with a cut command.
	assert.True(t, strings.HasSuffix(out, string([]byte{0x1D, 'V', 0x00})))
}

func TestEmitterPrintsQueuedReceipt(t *testing.T) {
	dev := &bufferCloser{}
	e := NewEmitter(&fakeFinder{w: dev}, zaptest.NewLogger(t), time.Second, 4)

	e.Start()
	e.Dispatch(sampleReceipt())
	e.Stop()

	assert.True(t, dev.closed)
	assert.Contains(t, dev.String(), "Espresso")
}

func TestEmitterSwallowsMissingPrinter(t *testing.T) {
	e := NewEmitter(&fakeFinder{err: ErrNoPrinter}, zaptest.NewLogger(t), time.Second, 4)

	e.Start()
	// Must not panic, block, or surface anything.
	e.Dispatch(sampleReceipt())
	e.Stop()
}

type failingDevice struct{ bufferCloser }

func (f *failingDevice) Write(p []byte) (int, error) {
	return 0, errors.New("printer on fire")
}

func TestEmitterSwallowsWriteError(t *testing.T) {
	dev := &failingDevice{}
	e := NewEmitter(&fakeFinder{w: dev}, zaptest.NewLogger(t), time.Second, 4)

	e.Start()
	e.Dispatch(sampleReceipt())
	e.Stop()
}

// stallingDevice blocks Write until the handle is closed, like a real
// character device with a jammed printer on the other end.
type stallingDevice struct {
	mu      sync.Mutex
	closes  int
	unblock chan struct{}
}

func newStallingDevice() *stallingDevice {
	return &stallingDevice{unblock: make(chan struct{})}
}

func (d *stallingDevice) Write([]byte) (int, error) {
	<-d.unblock
	return 0, errors.New("file already closed")
}

func (d *stallingDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	if d.closes == 1 {
		close(d.unblock)
	}
	return nil
}

func TestEmitterTimeoutUnblocksStalledWrite(t *testing.T) {
	dev := newStallingDevice()
	e := NewEmitter(&fakeFinder{w: dev}, zaptest.NewLogger(t), 20*time.Millisecond, 4)

	e.Start()
	e.Dispatch(sampleReceipt())
	// Stop returns only once the stalled write has been cut loose.
	e.Stop()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.Equal(t, 1, dev.closes)
}

func TestEmitterFinishedPrintNotReportedAsTimeout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dev := &bufferCloser{}
	// A timeout shorter than any real print: the timer fires around the same
	// time the write completes, and the completed write must still win.
	e := NewEmitter(&fakeFinder{w: dev}, zap.New(core), time.Nanosecond, 4)

	e.Start()
	e.Dispatch(sampleReceipt())
	e.Stop()

	assert.Contains(t, dev.String(), "Espresso")
	assert.Empty(t, logs.All(), "successful print must not be logged as a failure")
}
