// Package serial adapts the go.bug.st/serial stack to the transport ports
// used by the application layer.
package serial

import (
	"fmt"
	"sync"
	"time"

	gobug "go.bug.st/serial"

	"github.com/bft-labs/modelstation/internal/ports"
)

// readBufSize is the per-read scratch buffer. Console responses are short
// line-oriented text; 512 bytes comfortably covers a chunk between polls.
const readBufSize = 512

// Transport implements ports.Transport using go.bug.st/serial.
type Transport struct{}

// NewTransport creates a new serial transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Open opens the named port at the given baud rate with 8N1 framing.
func (*Transport) Open(port string, baud int) (ports.Conn, error) {
	mode := &gobug.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	}

	p, err := gobug.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}

	return &conn{port: p}, nil
}

// conn wraps one open go.bug.st/serial port.
type conn struct {
	mu     sync.Mutex
	port   gobug.Port
	closed bool
}

// Write writes the given bytes to the device.
func (c *conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, fmt.Errorf("write: port closed")
	}

	n, err := c.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("serial write: short write %d of %d bytes", n, len(p))
	}
	return n, nil
}

// ReadAvailable returns any bytes that arrive within the timeout.
// go.bug.st/serial reports an elapsed read timeout as (0, nil), which maps
// directly onto the "no data is not a failure" contract of ports.Conn.
func (c *conn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("read: port closed")
	}

	if err := c.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	buf := make([]byte, readBufSize)
	n, err := c.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("serial read: %w", err)
	}
	return buf[:n], nil
}

// Close releases the underlying handle. Safe to call more than once.
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.port.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}
