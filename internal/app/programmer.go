package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/modelstation/internal/console"
	"github.com/bft-labs/modelstation/internal/domain"
	"github.com/bft-labs/modelstation/internal/ports"
)

// promptTimeout is the budget for console prompt synchronization. Devices
// that just enumerated may still be booting, so this is deliberately longer
// than the per-command response timeout.
const promptTimeout = 8 * time.Second

// Console vocabulary.
const (
	cmdIdentify = "id"
	cmdModelSet = "model set"
	cmdModelGet = "model get"
)

// Programmer runs the per-device workflow on one assigned port:
// identify, check for a duplicate, set the model number, verify.
type Programmer struct {
	port        string
	modelNumber string
	baud        int
	transport   ports.Transport
	tracker     *Tracker
	logger      ports.Logger

	promptTimeout time.Duration
}

// NewProgrammer creates a programmer for the given port.
func NewProgrammer(port, modelNumber string, baud int, transport ports.Transport, tracker *Tracker, logger ports.Logger) *Programmer {
	return &Programmer{
		port:          port,
		modelNumber:   modelNumber,
		baud:          baud,
		transport:     transport,
		tracker:       tracker,
		logger:        logger,
		promptTimeout: promptTimeout,
	}
}

// Program opens a console session and drives the device through
// identify -> dedup check -> model set -> verify. The session is closed on
// every path. Whenever an identity was obtained the port-identity cache is
// refreshed, regardless of the outcome.
func (p *Programmer) Program(ctx context.Context) domain.Result {
	conn, err := p.transport.Open(p.port, p.baud)
	if err != nil {
		p.logger.Warn("failed to open port",
			ports.String("port", p.port),
			ports.Err(err),
		)
		return domain.Result{Outcome: domain.OutcomeFailed, Err: err}
	}

	sess := console.NewSession(conn, p.port, p.logger)
	defer func() {
		if err := sess.Close(); err != nil {
			p.logger.Warn("failed to close session",
				ports.String("port", p.port),
				ports.Err(err),
			)
		}
	}()

	if err := sess.WaitForPrompt(ctx, p.promptTimeout); err != nil {
		p.logger.Debug("no console prompt, device may still be booting",
			ports.String("port", p.port),
			ports.Err(err),
		)
		return domain.Result{Outcome: domain.OutcomeFailed, Err: err}
	}

	idResponse, err := sess.Execute(ctx, cmdIdentify)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed, Err: fmt.Errorf("identify: %w", err)}
	}
	mac, err := domain.ParseMAC(idResponse)
	if err != nil {
		p.logger.Warn("could not parse device identity",
			ports.String("port", p.port),
			ports.Err(err),
		)
		return domain.Result{Outcome: domain.OutcomeFailed, Err: err}
	}

	// From here on an identity is known; keep the cache fresh no matter
	// how the workflow ends.
	defer p.tracker.CachePort(p.port, mac)

	if p.tracker.IsProcessed(mac) {
		p.logger.Debug("device already processed this run",
			ports.String("port", p.port),
			ports.String("mac", mac.String()),
		)
		return domain.Result{Outcome: domain.OutcomeSkip, MAC: mac}
	}

	p.logger.Info("programming device",
		ports.String("port", p.port),
		ports.String("mac", mac.String()),
		ports.String("model", p.modelNumber),
	)

	setResponse, err := sess.Execute(ctx, cmdModelSet+" "+p.modelNumber)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed, MAC: mac, Err: fmt.Errorf("model set: %w", err)}
	}
	// Exact confirmation wording varies across firmware revisions, so a
	// missing confirmation only warns; the model get below is authoritative.
	if !strings.Contains(setResponse, "Model Number set to: "+p.modelNumber) {
		p.logger.Warn("unexpected response to model set, verifying anyway",
			ports.String("port", p.port),
			ports.String("mac", mac.String()),
		)
	}

	getResponse, err := sess.Execute(ctx, cmdModelGet)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed, MAC: mac, Err: fmt.Errorf("model get: %w", err)}
	}
	if !strings.Contains(getResponse, "Model Number: "+p.modelNumber) {
		p.logger.Error("model verification failed",
			ports.String("port", p.port),
			ports.String("mac", mac.String()),
			ports.String("model", p.modelNumber),
		)
		return domain.Result{Outcome: domain.OutcomeFailed, MAC: mac, Err: domain.ErrVerificationMismatch}
	}

	p.logger.Info("device programmed",
		ports.String("port", p.port),
		ports.String("mac", mac.String()),
		ports.String("model", p.modelNumber),
	)
	return domain.Result{Outcome: domain.OutcomeDone, MAC: mac}
}
