package serialout

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
)

// Port is the minimal serial port surface, so tests can run without
// hardware.
type Port interface {
	io.ReadWriter
	io.Closer
}

// Writer publishes command payloads as newline-terminated lines.
type Writer struct {
	port   Port
	logger *slog.Logger

	mu     sync.Mutex
	closed bool

	linesWritten atomic.Int64
	writeErrors  atomic.Int64
}

var _ bridge.Publisher = (*Writer)(nil)

// Open opens the serial port described by opts.
func Open(opts PortOptions, logger *slog.Logger) (*Writer, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(opts.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.Path, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("serial port opened", "path", opts.Path, "baud", mode.BaudRate)
	return New(port, logger), nil
}

// New wraps an already open port.
func New(port Port, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{port: port, logger: logger}
}

// Publish implements bridge.Publisher. The zero broadcast is not a
// controller command and is skipped.
func (w *Writer) Publish(ch bridge.Channel, payload []byte) error {
	if ch == bridge.ChannelZero {
		return nil
	}

	line := make([]byte, 0, len(payload)+1)
	line = append(append(line, payload...), '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return io.ErrClosedPipe
	}
	if _, err := w.port.Write(line); err != nil {
		w.writeErrors.Add(1)
		return fmt.Errorf("serial write: %w", err)
	}
	w.linesWritten.Add(1)
	return nil
}

// ReadLines passes every line the controller sends back to fn until the
// port is closed or ctx is done. Closing the Writer unblocks it.
func (w *Writer) ReadLines(ctx context.Context, fn func(line string)) error {
	scanner := bufio.NewScanner(w.port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serial read: %w", err)
	}
	return ctx.Err()
}

// Close closes the port.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.port.Close()
}

// Stats returns writer statistics.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		LinesWritten: w.linesWritten.Load(),
		WriteErrors:  w.writeErrors.Load(),
	}
}

// WriterStats contains writer statistics.
type WriterStats struct {
	LinesWritten int64 `json:"lines_written"`
	WriteErrors  int64 `json:"write_errors"`
}
