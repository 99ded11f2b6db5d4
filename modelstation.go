// Package modelstation provides a hot-plug provisioning agent for
// console-equipped embedded devices attached over serial-over-USB.
//
// Example usage:
//
//	cfg := modelstation.Config{ModelNumber: "ABC-123"}
//	station := modelstation.New(cfg, modelstation.WithLogger(logger))
//	summary, err := station.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, mac := range summary.Programmed {
//	    fmt.Println(mac)
//	}
//
// Run blocks until the context is canceled, polling for newly attached
// serial ports and programming each device's model number at most once per
// run, keyed by the device's MAC address rather than its port.
package modelstation

import (
	"context"
	"time"

	serialadapter "github.com/bft-labs/modelstation/internal/adapters/serial"
	"github.com/bft-labs/modelstation/internal/app"
	"github.com/bft-labs/modelstation/pkg/log"
)

// Config holds the configuration for a provisioning run.
type Config = app.Config

// Summary is the end-of-run accounting of programmed, failed and abandoned
// devices.
type Summary = app.Summary

// Station is one provisioning run over the locally attached serial ports.
type Station struct {
	sup *app.Supervisor
}

// Option customizes a Station.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the logger used by all components.
// Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Station backed by the OS serial port list.
func New(cfg Config, opts ...Option) *Station {
	o := options{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	sup := app.NewSupervisor(
		cfg,
		serialadapter.NewEnumerator(),
		serialadapter.NewTransport(),
		app.NewTracker(),
		o.logger,
	)
	return &Station{sup: sup}
}

// Run polls for devices until the context is canceled, then returns the
// session summary. Worker failures are local; the returned error is non-nil
// only when port enumeration fails persistently.
func (s *Station) Run(ctx context.Context) (Summary, error) {
	return s.sup.Run(ctx)
}

// SetPollInterval adjusts the poll interval at runtime.
func (s *Station) SetPollInterval(d time.Duration) {
	s.sup.SetPollInterval(d)
}
