package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// The model number is deliberately absent: it names what is being programmed
// and must be stated explicitly on every invocation.
type FileConfig struct {
	BaudRate     int    `toml:"baud_rate"`
	PollInterval string `toml:"poll_interval"`
	ReportPath   string `toml:"report_path"`
	Debug        *bool  `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.modelstation/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".modelstation", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setInt("baud", fc.BaudRate, &cfg.BaudRate)
	s.setString("report", fc.ReportPath, &cfg.ReportPath)
	s.setBool("debug", fc.Debug, &cfg.Debug)

	if err := s.setDuration("interval", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
