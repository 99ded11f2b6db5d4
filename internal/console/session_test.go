package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/modelstation/internal/domain"
	"github.com/bft-labs/modelstation/pkg/log"
)

// fakeConn scripts a device console for session tests. Chunks pushed to
// pending are returned one per read; an empty queue emulates an elapsed
// read timeout.
type fakeConn struct {
	mu      sync.Mutex
	pending []string
	writes  []string
	onWrite func(written string)
	closed  bool
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.writes = append(c.writes, string(p))
	cb := c.onWrite
	c.mu.Unlock()

	if cb != nil {
		cb(string(p))
	}
	return len(p), nil
}

func (c *fakeConn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	chunk := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()
	return []byte(chunk), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) push(chunk string) {
	c.mu.Lock()
	c.pending = append(c.pending, chunk)
	c.mu.Unlock()
}

func (c *fakeConn) countWrites(s string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.writes {
		if w == s {
			n++
		}
	}
	return n
}

func newTestSession(conn *fakeConn) *Session {
	return NewSession(conn, "/dev/ttyUSB0", log.NewNoopLogger())
}

func TestWaitForPrompt_DetectsSentinel(t *testing.T) {
	conn := &fakeConn{}
	conn.onWrite = func(w string) {
		if w == "\r\n" {
			conn.push("\r\nwidget> ")
		}
	}

	s := newTestSession(conn)
	if err := s.WaitForPrompt(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForPrompt() error = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle", s.State())
	}
}

func TestWaitForPrompt_Timeout(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSession(conn)

	start := time.Now()
	err := s.WaitForPrompt(context.Background(), 150*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrPromptTimeout) {
		t.Fatalf("WaitForPrompt() error = %v, want ErrPromptTimeout", err)
	}
	if elapsed < 150*time.Millisecond {
		t.Errorf("returned after %v, before the timeout expired", elapsed)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %v, want Failed", s.State())
	}
}

func TestWaitForPrompt_SentinelOutsideTrailingWindow(t *testing.T) {
	conn := &fakeConn{}
	conn.push("widget>" + strings.Repeat("x", 40))

	s := newTestSession(conn)
	err := s.WaitForPrompt(context.Background(), 150*time.Millisecond)
	if !errors.Is(err, domain.ErrPromptTimeout) {
		t.Fatalf("WaitForPrompt() error = %v, want ErrPromptTimeout", err)
	}
}

func TestWaitForPrompt_AnswersCapabilityQuery(t *testing.T) {
	conn := &fakeConn{}
	conn.push("\x1b[6n")
	conn.push("widget> ")

	s := newTestSession(conn)
	if err := s.WaitForPrompt(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForPrompt() error = %v", err)
	}
	if got := conn.countWrites(escReply); got != 1 {
		t.Errorf("capability replies = %d, want 1", got)
	}
}

func TestWaitForPrompt_Canceled(t *testing.T) {
	conn := &fakeConn{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestSession(conn)
	err := s.WaitForPrompt(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitForPrompt() error = %v, want context.Canceled", err)
	}
}

func TestExecute_CollectsUntilSentinel(t *testing.T) {
	conn := &fakeConn{}
	conn.onWrite = func(w string) {
		if w == "id\r" {
			conn.push("id\r\nMAC: 3c:71:bf:aa:bb:cc\r\n")
			conn.push("widget> ")
		}
	}

	s := newTestSession(conn)
	s.state = StateIdle

	resp, err := s.Execute(context.Background(), "id")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(resp, "MAC: 3c:71:bf:aa:bb:cc") {
		t.Errorf("response %q missing identity line", resp)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle", s.State())
	}
}

func TestExecute_PartialOnTimeout(t *testing.T) {
	conn := &fakeConn{}
	conn.onWrite = func(w string) {
		if strings.HasPrefix(w, "model get") {
			conn.push("garbled output\r\n")
		}
	}

	s := newTestSession(conn)
	s.state = StateIdle
	s.respTimeout = 100 * time.Millisecond

	resp, err := s.Execute(context.Background(), "model get")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp != "garbled output\r\n" {
		t.Errorf("response = %q, want the partial text", resp)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle", s.State())
	}
}

func TestExecute_DrainsStaleInput(t *testing.T) {
	conn := &fakeConn{}
	conn.push("stale bytes from the last exchange")
	conn.onWrite = func(w string) {
		if w == "model get\r" {
			conn.push("Model Number: ABC-123\r\nwidget> ")
		}
	}

	s := newTestSession(conn)
	s.state = StateIdle

	resp, err := s.Execute(context.Background(), "model get")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(resp, "stale") {
		t.Errorf("response %q contains stale input", resp)
	}
	if !strings.Contains(resp, "Model Number: ABC-123") {
		t.Errorf("response %q missing confirmation", resp)
	}
}

func TestExecute_AnswersCapabilityQueryInResponse(t *testing.T) {
	conn := &fakeConn{}
	conn.onWrite = func(w string) {
		if w == "model get\r" {
			conn.push("\x1b[6nModel Number: ABC-123\r\nwidget> ")
		}
	}

	s := newTestSession(conn)
	s.state = StateIdle

	resp, err := s.Execute(context.Background(), "model get")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(resp, escQuery) || strings.Contains(resp, escQueryBare) {
		t.Errorf("response %q still contains the capability query", resp)
	}
	if got := conn.countWrites(escReply); got != 1 {
		t.Errorf("capability replies = %d, want 1", got)
	}
}

func TestExecute_RequiresIdle(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSession(conn)

	_, err := s.Execute(context.Background(), "id")
	if !errors.Is(err, domain.ErrSessionState) {
		t.Fatalf("Execute() error = %v, want ErrSessionState", err)
	}
}

func TestClose_ReleasesConnection(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSession(conn)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !conn.closed {
		t.Error("connection not closed")
	}
}
