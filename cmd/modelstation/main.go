package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/modelstation"
	"github.com/bft-labs/modelstation/internal/adapters/fs"
	"github.com/bft-labs/modelstation/internal/cliconfig"
	"github.com/bft-labs/modelstation/internal/domain"
	"github.com/bft-labs/modelstation/pkg/log"
)

const helpDescription = `
Program a model number into every console-equipped device plugged into this
station. Ports are polled continuously; plug devices in and out freely and
press Ctrl-C when the batch is done.

Highlights:
  - Deduplicates by device MAC address, so re-enumerated ports are skipped.
  - Verifies every write by reading the model number back from the device.
  - Configure via file ($HOME/.modelstation/config.toml), env, or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  modelstation WIDGET-2000
  modelstation WIDGET-2000 --baud 9600 --report batch.json
  modelstation --config ./station.toml WIDGET-2000
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "modelstation <model-number>",
		Short:   "Program a model number into every device plugged into this station",
		Long:    longHelp,
		Example: exampleUsage,
		Args:    cobra.ExactArgs(1),
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ModelNumber = args[0]

			// Determine config path
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment (MODELSTATION_*) overrides file config but is
			// overridden by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.Logger(cfg.Debug)
			logger := log.NewZerologAdapterWithLogger(zl)

			logger.Info("configuration",
				log.String("model_number", cfg.ModelNumber),
				log.Int("baud", cfg.BaudRate),
				log.Duration("poll_interval", cfg.PollInterval),
				log.String("report", cfg.ReportPath),
			)

			station := modelstation.New(modelstation.Config{
				ModelNumber:  cfg.ModelNumber,
				BaudRate:     cfg.BaudRate,
				PollInterval: cfg.PollInterval,
			}, modelstation.WithLogger(logger))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Reload runtime-safe settings when the config file changes.
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				watcher := cliconfig.NewConfigWatcher(cfgFile, logger, func(fc cliconfig.FileConfig) {
					if fc.Debug != nil {
						cliconfig.SetDebug(*fc.Debug)
					}
					if fc.PollInterval != "" {
						if d, err := time.ParseDuration(fc.PollInterval); err == nil && d > 0 {
							station.SetPollInterval(d)
						}
					}
				})
				go watcher.Run(ctx)
			}

			summary, err := station.Run(ctx)
			if err != nil {
				return err
			}

			printSummary(summary)

			if cfg.ReportPath != "" {
				repo := fs.NewReportFileRepository(cfg.ReportPath)
				report := buildReport(cfg.ModelNumber, summary)
				if err := repo.Save(context.Background(), report); err != nil {
					logger.Warn("report not written",
						log.String("path", cfg.ReportPath),
						log.Err(err),
					)
				} else {
					logger.Info("report written", log.String("path", repo.Path()))
				}
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.modelstation/config.toml)")
	root.Flags().IntVarP(&cfg.BaudRate, "baud", "b", cfg.BaudRate, "serial baud rate")
	root.Flags().DurationVarP(&cfg.PollInterval, "interval", "i", cfg.PollInterval, "port poll interval")
	root.Flags().StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write a JSON run report to this path on exit")
	root.Flags().BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "modelstation: %v\n", err)
		os.Exit(1)
	}
}

// printSummary writes the end-of-run accounting to stdout.
func printSummary(s modelstation.Summary) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Successfully programmed %d device(s):\n", len(s.Programmed))
	for _, mac := range s.Programmed {
		fmt.Printf("  %s\n", mac)
	}
	if len(s.Failed) > 0 {
		fmt.Printf("Failed %d device(s):\n", len(s.Failed))
		for _, mac := range s.Failed {
			fmt.Printf("  %s\n", mac)
		}
	}
	if s.Skipped > 0 {
		fmt.Printf("Skipped %d re-detection(s) of already-processed devices.\n", s.Skipped)
	}
	if s.Abandoned > 0 {
		fmt.Printf("Abandoned %d unresponsive worker(s); results unknown.\n", s.Abandoned)
	}
	fmt.Println(strings.Repeat("=", 50))
}

// buildReport converts a run summary into the persisted report form.
func buildReport(modelNumber string, s modelstation.Summary) domain.Report {
	r := domain.Report{
		ModelNumber: modelNumber,
		GeneratedAt: time.Now().UTC(),
	}
	for _, mac := range s.Programmed {
		r.Devices = append(r.Devices, domain.DeviceRecord{
			MAC:     string(mac),
			Outcome: domain.OutcomeDone.String(),
		})
	}
	for _, mac := range s.Failed {
		r.Devices = append(r.Devices, domain.DeviceRecord{
			MAC:     string(mac),
			Outcome: domain.OutcomeFailed.String(),
			Error:   "verification failed",
		})
	}
	return r
}
