package receipt

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-backend/pkg/escpos"
)

// ErrNoPrinter is returned when no candidate device accepts an ESC/POS probe.
var ErrNoPrinter = errors.New("no ESC/POS printer found on serial ports")

// DefaultPortPatterns are the device paths scanned for a receipt printer.
var DefaultPortPatterns = []string{
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
	"/dev/usb/lp*",
	"/dev/serial/by-id/*",
}

// Finder locates a connected receipt printer and returns an open handle to it.
// The caller owns the handle and must close it.
type Finder interface {
	Find() (w io.WriteCloser, path string, err error)
}

// DeviceFinder probes serial and USB line-printer device paths for something
// that accepts an ESC/POS init sequence.
type DeviceFinder struct {
	// Patterns are the glob patterns to scan. DefaultPortPatterns when empty.
	Patterns []string
}

// Find scans the configured patterns and returns the first device that
// accepts an init write. Devices that cannot be opened or fail the probe are
// skipped.
func (f *DeviceFinder) Find() (io.WriteCloser, string, error) {
	patterns := f.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPortPatterns
	}

	for _, pattern := range patterns {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			// Only possible for a malformed pattern; skip it.
			continue
		}
		for _, path := range paths {
			w, err := probePort(path)
			if err != nil {
				continue
			}
			return w, path, nil
		}
	}
	return nil, "", ErrNoPrinter
}

// probePort opens a device path and sends an ESC/POS init. A failure on
// either step means the path is not a usable printer.
func probePort(path string) (io.WriteCloser, error) {
	fd, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := escpos.New(fd).Init().Err(); err != nil {
		_ = fd.Close()
		return nil, errors.Wrapf(err, "probe %s", path)
	}
	return fd, nil
}
