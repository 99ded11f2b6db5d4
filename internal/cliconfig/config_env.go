package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (MODELSTATION_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("report", os.Getenv("MODELSTATION_REPORT"), &cfg.ReportPath)

	if err := s.setIntFromString("baud", os.Getenv("MODELSTATION_BAUD"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("MODELSTATION_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	s.setBoolFromString("debug", os.Getenv("MODELSTATION_DEBUG"), &cfg.Debug)

	return nil
}
