package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/modelstation/internal/domain"
	"github.com/bft-labs/modelstation/internal/ports"
)

// Prompt sentinel emitted by the device console when it is ready for input.
const PromptSentinel = "widget>"

// Terminal capability negotiation. The remote line editor queries the cursor
// position and blocks until it gets an answer.
const (
	escQuery     = "\x1b[6n"
	escQueryBare = "[6n"
	escReply     = "\x1b[1;1R"
)

const (
	// sentinelWindow is how many trailing buffer characters are scanned for
	// the prompt sentinel during synchronization.
	sentinelWindow = 20

	// maxBuffer caps the rolling synchronization buffer; when exceeded it is
	// trimmed to the trailing trimBuffer characters.
	maxBuffer  = 2000
	trimBuffer = 1000

	// enterInterval is how often a line terminator is written to provoke a
	// fresh prompt line while synchronizing.
	enterInterval = 500 * time.Millisecond

	// readSlice bounds each individual transport read.
	readSlice = 50 * time.Millisecond

	// settleDelay is waited before draining stale input ahead of a command.
	settleDelay = 100 * time.Millisecond

	// graceDelay is waited after the response sentinel to catch trailing bytes.
	graceDelay = 50 * time.Millisecond

	// drainTimeout bounds the reads that only collect already-pending bytes.
	drainTimeout = 10 * time.Millisecond

	// ResponseTimeout bounds how long a command waits for its prompt line.
	ResponseTimeout = 5 * time.Second
)

// Session drives the console protocol over one open transport connection.
// A session is owned by a single worker goroutine and is not safe for
// concurrent use.
type Session struct {
	conn   ports.Conn
	port   string
	logger ports.Logger
	state  State

	respTimeout time.Duration
}

// NewSession creates a session over an already-open connection.
// The session takes over reads and writes but not ownership of closing;
// call Close to release the connection.
func NewSession(conn ports.Conn, port string, logger ports.Logger) *Session {
	return &Session{
		conn:        conn,
		port:        port,
		logger:      logger,
		state:       StateAwaitingPrompt,
		respTimeout: ResponseTimeout,
	}
}

// State returns the current protocol state.
func (s *Session) State() State {
	return s.state
}

// WaitForPrompt synchronizes with the remote console. It writes a line
// terminator every 500ms to provoke a fresh prompt line while scanning
// incoming bytes for the prompt sentinel. Returns domain.ErrPromptTimeout
// if the sentinel does not appear within the timeout.
func (s *Session) WaitForPrompt(ctx context.Context, timeout time.Duration) error {
	if s.state != StateAwaitingPrompt {
		return fmt.Errorf("%w: prompt wait in %s", domain.ErrSessionState, s.state)
	}

	deadline := time.Now().Add(timeout)
	var buffer string
	var lastEnter time.Time

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			s.transition(StateFailed)
			return err
		}

		if time.Since(lastEnter) > enterInterval {
			if _, err := s.conn.Write([]byte("\r\n")); err != nil {
				s.transition(StateFailed)
				return fmt.Errorf("provoke prompt: %w", err)
			}
			lastEnter = time.Now()
		}

		chunk, err := s.readChunk(readSlice)
		if err != nil {
			s.transition(StateFailed)
			return err
		}
		if chunk == "" {
			continue
		}

		buffer += chunk

		tail := buffer
		if len(tail) > sentinelWindow {
			tail = tail[len(tail)-sentinelWindow:]
		}
		if strings.Contains(tail, PromptSentinel) {
			s.logger.Debug("prompt detected", ports.String("port", s.port))
			return s.transition(StateIdle)
		}

		if len(buffer) > maxBuffer {
			buffer = buffer[len(buffer)-trimBuffer:]
		}
	}

	s.transition(StateFailed)
	return domain.ErrPromptTimeout
}

// Execute sends one command and collects the response up to the next prompt
// sentinel. On response timeout the partial text collected so far is returned
// with a nil error; callers decide whether the expected confirmation is
// present. The session must be Idle.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	if err := s.transition(StateSendingCommand); err != nil {
		return "", err
	}

	// Let in-flight bytes from the previous exchange land, then discard
	// them so they cannot corrupt this response.
	if err := sleepCtx(ctx, settleDelay); err != nil {
		s.transition(StateFailed)
		return "", err
	}
	if stale, err := s.readChunk(drainTimeout); err != nil {
		s.transition(StateFailed)
		return "", err
	} else if stale != "" {
		s.logger.Debug("discarded stale input",
			ports.String("port", s.port),
			ports.Int("bytes", len(stale)),
		)
	}

	if _, err := s.conn.Write([]byte(command + "\r")); err != nil {
		s.transition(StateFailed)
		return "", fmt.Errorf("send command: %w", err)
	}
	if err := s.transition(StateAwaitingResponse); err != nil {
		return "", err
	}

	s.logger.Debug("command sent",
		ports.String("port", s.port),
		ports.String("command", command),
	)

	deadline := time.Now().Add(s.respTimeout)
	var response string

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			s.transition(StateFailed)
			return response, err
		}

		chunk, err := s.readChunk(readSlice)
		if err != nil {
			s.transition(StateFailed)
			return response, err
		}
		if chunk == "" {
			continue
		}

		response += chunk

		if strings.Contains(chunk, PromptSentinel) {
			// Brief grace read for bytes that trail the prompt.
			if err := sleepCtx(ctx, graceDelay); err != nil {
				s.transition(StateFailed)
				return response, err
			}
			if tail, err := s.readChunk(drainTimeout); err == nil {
				response += tail
			}
			return response, s.transition(StateIdle)
		}
	}

	s.logger.Debug("response timeout, returning partial text",
		ports.String("port", s.port),
		ports.String("command", command),
		ports.Int("bytes", len(response)),
	)
	return response, s.transition(StateIdle)
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// readChunk performs one bounded read, answering and stripping any terminal
// capability query before the chunk reaches a buffer. An empty string with a
// nil error means no bytes arrived within the timeout.
func (s *Session) readChunk(timeout time.Duration) (string, error) {
	data, err := s.conn.ReadAvailable(timeout)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	chunk := string(data)
	if strings.Contains(chunk, escQuery) || strings.Contains(chunk, escQueryBare) {
		if _, err := s.conn.Write([]byte(escReply)); err != nil {
			return "", fmt.Errorf("answer capability query: %w", err)
		}
		chunk = strings.ReplaceAll(chunk, escQuery, "")
		chunk = strings.ReplaceAll(chunk, escQueryBare, "")
	}
	return chunk, nil
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
