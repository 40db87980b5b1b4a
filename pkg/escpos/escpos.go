// Package escpos encodes the small subset of ESC/POS commands needed to drive
// a thermal receipt printer over any io.Writer (typically a serial or USB
// line-printer device file).
package escpos

import "io"

// Alignment selects horizontal alignment for subsequent text.
type Alignment byte

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

// Printer writes ESC/POS command sequences to an underlying writer. Methods
// record the first write error and turn the rest into no-ops, so call sites
// can chain commands and check Err once.
type Printer struct {
	w   io.Writer
	err error
}

// New wraps w in a Printer.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Err returns the first error encountered by any command, or nil.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) raw(b []byte) *Printer {
	if p.err == nil {
		_, p.err = p.w.Write(b)
	}
	return p
}

// Init resets the printer to its power-on state (ESC @). It doubles as the
// probe command during device discovery: a write failure means the path is
// not a usable printer.
func (p *Printer) Init() *Printer {
	return p.raw([]byte{0x1B, '@'})
}

// Align sets the horizontal alignment (ESC a n).
func (p *Printer) Align(a Alignment) *Printer {
	return p.raw([]byte{0x1B, 'a', byte(a)})
}

// LineSpacing sets the line spacing in motion units (ESC 3 n).
func (p *Printer) LineSpacing(n byte) *Printer {
	return p.raw([]byte{0x1B, '3', n})
}

// Bold toggles emphasized printing (ESC E n).
func (p *Printer) Bold(on bool) *Printer {
	n := byte(0)
	if on {
		n = 1
	}
	return p.raw([]byte{0x1B, 'E', n})
}

// Text sends raw text to the printer.
func (p *Printer) Text(s string) *Printer {
	return p.raw([]byte(s))
}

// Feed advances the paper by n lines (ESC d n).
func (p *Printer) Feed(n byte) *Printer {
	return p.raw([]byte{0x1B, 'd', n})
}

// Cut performs a full paper cut (GS V 0).
func (p *Printer) Cut() *Printer {
	return p.raw([]byte{0x1D, 'V', 0x00})
}
