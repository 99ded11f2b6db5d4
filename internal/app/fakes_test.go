package app

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/modelstation/internal/ports"
)

// scriptedDevice emulates a device console for workflow tests. The zero
// value is a healthy device with no identity; set mac for a programmable one.
type scriptedDevice struct {
	mu sync.Mutex

	mac      string        // identity reported by "id"; empty means no MAC line
	noPrompt bool          // never emit the prompt sentinel
	setReply string        // override for the "model set" response
	getReply string        // override for the "model get" response
	setDelay time.Duration // delay before the "model set" response arrives
	model    string        // last value accepted by "model set"
	commands []string
}

// replyDelay returns how long the device sits on a command before answering.
func (d *scriptedDevice) replyDelay(cmd string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.HasPrefix(cmd, "model set ") {
		return d.setDelay
	}
	return 0
}

func (d *scriptedDevice) respond(cmd string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, cmd)

	switch {
	case cmd == "id":
		if d.mac == "" {
			return "unrecognized command\r\nwidget> "
		}
		return "MAC: " + d.mac + "\r\nwidget> "
	case strings.HasPrefix(cmd, "model set "):
		d.model = strings.TrimPrefix(cmd, "model set ")
		if d.setReply != "" {
			return d.setReply
		}
		return "Model Number set to: " + d.model + "\r\nwidget> "
	case cmd == "model get":
		if d.getReply != "" {
			return d.getReply
		}
		return "Model Number: " + d.model + "\r\nwidget> "
	default:
		return "unrecognized command\r\nwidget> "
	}
}

func (d *scriptedDevice) received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.commands...)
}

// deviceConn is a ports.Conn speaking to a scriptedDevice.
type deviceConn struct {
	mu      sync.Mutex
	dev     *scriptedDevice
	pending []byte
}

func (c *deviceConn) Write(p []byte) (int, error) {
	s := string(p)
	switch {
	case c.dev.noPrompt:
		// Device is wedged; swallow everything.
	case s == "\r\n":
		c.queue("\r\nwidget> ")
	case strings.HasSuffix(s, "\r"):
		cmd := strings.TrimSuffix(s, "\r")
		reply := c.dev.respond(cmd)
		if d := c.dev.replyDelay(cmd); d > 0 {
			time.AfterFunc(d, func() { c.queue(reply) })
		} else {
			c.queue(reply)
		}
	}
	return len(p), nil
}

func (c *deviceConn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	out := c.pending
	c.pending = nil
	c.mu.Unlock()
	return out, nil
}

func (c *deviceConn) Close() error { return nil }

func (c *deviceConn) queue(s string) {
	c.mu.Lock()
	c.pending = append(c.pending, s...)
	c.mu.Unlock()
}

// blockingConn never returns from a read; it emulates a transport stuck in
// driver I/O so worker abandonment can be exercised.
type blockingConn struct {
	block chan struct{}
}

func newBlockingConn() *blockingConn {
	return &blockingConn{block: make(chan struct{})}
}

func (c *blockingConn) Write(p []byte) (int, error) { return len(p), nil }

func (c *blockingConn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	<-c.block
	return nil, errors.New("port gone")
}

func (c *blockingConn) Close() error { return nil }

// fakeTransport maps ports to scripted devices.
type fakeTransport struct {
	mu      sync.Mutex
	devices map[string]*scriptedDevice
	blocked map[string]*blockingConn
	openErr error
	opened  []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		devices: make(map[string]*scriptedDevice),
		blocked: make(map[string]*blockingConn),
	}
}

func (t *fakeTransport) Open(port string, baud int) (ports.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openErr != nil {
		return nil, t.openErr
	}
	t.opened = append(t.opened, port)

	if c, ok := t.blocked[port]; ok {
		return c, nil
	}
	dev, ok := t.devices[port]
	if !ok {
		return nil, errors.New("no such port: " + port)
	}
	return &deviceConn{dev: dev}, nil
}

func (t *fakeTransport) openCount(port string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.opened {
		if p == port {
			n++
		}
	}
	return n
}

// fakeEnumerator returns a settable port list.
type fakeEnumerator struct {
	mu      sync.Mutex
	ports   []string
	listErr error
}

func (e *fakeEnumerator) List() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listErr != nil {
		return nil, e.listErr
	}
	return append([]string{}, e.ports...), nil
}

func (e *fakeEnumerator) set(ports ...string) {
	e.mu.Lock()
	e.ports = ports
	e.mu.Unlock()
}
