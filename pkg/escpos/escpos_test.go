package escpos

import (
	"bytes"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncoding(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Init().Align(AlignCenter).Bold(true).Text("HI").Feed(2).Cut()
	require.NoError(t, p.Err())

	want := []byte{
		0x1B, '@',
		0x1B, 'a', 1,
		0x1B, 'E', 1,
		'H', 'I',
		0x1B, 'd', 2,
		0x1D, 'V', 0x00,
	}
	assert.Equal(t, want, buf.Bytes())
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("device gone")
	}
	return len(p), nil
}

func TestStickyError(t *testing.T) {
	w := &failingWriter{}
	p := New(w)

	p.Init().Text("a").Text("b").Cut()

	require.Error(t, p.Err())
	// Commands after the first failure must not reach the device.
	assert.Equal(t, 2, w.writes)
}
