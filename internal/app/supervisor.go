package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/modelstation/internal/domain"
	"github.com/bft-labs/modelstation/internal/ports"
)

// Default orchestration settings.
const (
	DefaultPollInterval      = time.Second
	DefaultWorkerJoinTimeout = 5 * time.Second
	DefaultBaudRate          = 115200
)

// maxEnumFailures is how many consecutive port enumeration failures are
// tolerated before the poll loop gives up.
const maxEnumFailures = 3

// Config contains configuration for the supervisor.
type Config struct {
	ModelNumber       string
	BaudRate          int
	PollInterval      time.Duration
	WorkerJoinTimeout time.Duration
}

// Summary is the end-of-run accounting read from the tracker at shutdown.
// Programmed holds the identities whose outcome was Done; Failed holds
// fail-once identities that concluded with a verification mismatch or a
// mid-workflow error after identification. Skipped counts workers that
// identified an already-processed device and sent no programming commands;
// their identities are already present in Programmed or Failed. Abandoned
// counts workers that exceeded the join timeout and were excluded from the
// summary.
type Summary struct {
	Programmed []domain.MAC
	Failed     []domain.MAC
	Skipped    int
	Abandoned  int
}

// worker is one in-flight programming attempt. The port is owned by the
// worker from dispatch until done is closed.
type worker struct {
	port string
	done chan struct{}
}

// Supervisor runs the hot-plug poll loop: it detects new ports, dispatches
// one programming worker per port, reaps finished workers, and produces the
// session summary on shutdown.
type Supervisor struct {
	cfg       Config
	enum      ports.PortEnumerator
	transport ports.Transport
	tracker   *Tracker
	logger    ports.Logger

	mu           sync.Mutex
	inFlight     map[string]*worker
	pollInterval time.Duration
	skipped      int
}

// NewSupervisor creates a supervisor. Zero config fields fall back to the
// package defaults.
func NewSupervisor(cfg Config, enum ports.PortEnumerator, transport ports.Transport, tracker *Tracker, logger ports.Logger) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.WorkerJoinTimeout <= 0 {
		cfg.WorkerJoinTimeout = DefaultWorkerJoinTimeout
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	return &Supervisor{
		cfg:          cfg,
		enum:         enum,
		transport:    transport,
		tracker:      tracker,
		logger:       logger,
		inFlight:     make(map[string]*worker),
		pollInterval: cfg.PollInterval,
	}
}

// SetPollInterval adjusts the poll interval at runtime. Used by the config
// watcher; takes effect on the next poll cycle.
func (s *Supervisor) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.pollInterval = d
	s.mu.Unlock()
}

// Run polls for ports until the context is canceled, then joins in-flight
// workers with a bounded per-worker timeout and returns the summary.
// The returned error is non-nil only when enumeration fails repeatedly;
// worker errors never propagate here.
//
// Cancellation stops polling only. Workers run on their own context so a
// device mid-programming at shutdown finishes inside the join window
// instead of being committed as a spurious failure; the worker context is
// canceled only once joining is over, releasing any abandoned workers.
func (s *Supervisor) Run(ctx context.Context) (Summary, error) {
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	s.logger.Info("monitoring for devices",
		ports.String("model", s.cfg.ModelNumber),
		ports.Duration("poll_interval", s.currentPollInterval()),
	)

	enumFailures := 0
	for {
		select {
		case <-ctx.Done():
			return s.shutdown(), nil
		case <-time.After(s.currentPollInterval()):
		}

		visible, err := s.enum.List()
		if err != nil {
			enumFailures++
			s.logger.Warn("port enumeration failed",
				ports.Err(err),
				ports.Int("consecutive", enumFailures),
			)
			if enumFailures >= maxEnumFailures {
				return s.shutdown(), fmt.Errorf("port enumeration failed %d times: %w", enumFailures, err)
			}
			continue
		}
		enumFailures = 0

		for _, port := range visible {
			s.maybeDispatch(workerCtx, port)
		}
	}
}

func (s *Supervisor) currentPollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// maybeDispatch starts a worker for the port unless the port is already
// in-flight or its cached identity is known done.
func (s *Supervisor) maybeDispatch(ctx context.Context, port string) {
	s.mu.Lock()
	if _, busy := s.inFlight[port]; busy {
		s.mu.Unlock()
		return
	}
	if mac, ok := s.tracker.CachedMAC(port); ok && s.tracker.IsProcessed(mac) {
		s.mu.Unlock()
		s.logger.Debug("skipping recently checked port",
			ports.String("port", port),
			ports.String("mac", mac.String()),
		)
		return
	}
	w := &worker{port: port, done: make(chan struct{})}
	s.inFlight[port] = w
	s.mu.Unlock()

	s.logger.Info("new device detected", ports.String("port", port))
	go s.runWorker(ctx, w)
}

// runWorker executes one programming attempt and commits its result.
// The port leaves the in-flight set on every outcome.
func (s *Supervisor) runWorker(ctx context.Context, w *worker) {
	defer close(w.done)
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, w.port)
		s.mu.Unlock()
	}()

	prog := NewProgrammer(w.port, s.cfg.ModelNumber, s.cfg.BaudRate, s.transport, s.tracker, s.logger)
	result := prog.Program(ctx)

	if result.HasIdentity() {
		// Fail-once: a verification mismatch is committed so the device is
		// not retried; identity-less failures stay retriable.
		s.tracker.MarkProcessed(result.MAC, result.Outcome)
	}

	switch {
	case result.Outcome == domain.OutcomeSkip:
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
	case result.Outcome == domain.OutcomeFailed && result.HasIdentity():
		s.logger.Error("programming failed",
			ports.String("port", w.port),
			ports.String("mac", result.MAC.String()),
			ports.Err(result.Err),
		)
	case result.Outcome == domain.OutcomeFailed:
		s.logger.Debug("no identity obtained, device can be retried",
			ports.String("port", w.port),
			ports.Err(result.Err),
		)
	}
}

// shutdown joins in-flight workers with a bounded per-worker timeout, then
// reads the tracker snapshot into the summary. Workers exceeding the timeout
// are abandoned, not forcibly terminated.
func (s *Supervisor) shutdown() Summary {
	s.mu.Lock()
	workers := make([]*worker, 0, len(s.inFlight))
	for _, w := range s.inFlight {
		workers = append(workers, w)
	}
	s.mu.Unlock()

	if len(workers) > 0 {
		s.logger.Info("waiting for active workers", ports.Int("count", len(workers)))
	}

	summary := Summary{}
	for _, w := range workers {
		select {
		case <-w.done:
		case <-time.After(s.cfg.WorkerJoinTimeout):
			summary.Abandoned++
			s.logger.Warn("abandoning worker",
				ports.String("port", w.port),
				ports.Duration("timeout", s.cfg.WorkerJoinTimeout),
			)
		}
	}

	// Read after the joins so skips concluded inside the join window count.
	s.mu.Lock()
	summary.Skipped = s.skipped
	s.mu.Unlock()

	for mac, outcome := range s.tracker.Snapshot() {
		switch outcome {
		case domain.OutcomeDone:
			summary.Programmed = append(summary.Programmed, mac)
		case domain.OutcomeFailed:
			summary.Failed = append(summary.Failed, mac)
		}
	}
	sort.Slice(summary.Programmed, func(i, j int) bool { return summary.Programmed[i] < summary.Programmed[j] })
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i] < summary.Failed[j] })

	return summary
}
