package ports

import "time"

// Transport opens serial console connections to attached devices.
// Implementations wrap a concrete serial stack; the application layer never
// touches OS handles directly.
type Transport interface {
	// Open opens the named port at the given baud rate.
	// The returned Conn must eventually be closed by the caller.
	Open(port string, baud int) (Conn, error)
}

// Conn is one open serial connection.
//
// Reads are always bounded: ReadAvailable returns whatever bytes arrived
// within the timeout, possibly none. There is no blocking read without a
// timeout anywhere in the system, which keeps workers responsive to
// cancellation.
type Conn interface {
	// Write writes the given bytes to the device.
	Write(p []byte) (int, error)

	// ReadAvailable returns any bytes available within the timeout.
	// A nil error with an empty slice means the timeout elapsed with no
	// data; that is not a failure.
	ReadAvailable(timeout time.Duration) ([]byte, error)

	// Close releases the underlying handle. Safe to call more than once.
	Close() error
}
