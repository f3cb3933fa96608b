package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chazu/spool/pkg/config"
	"github.com/chazu/spool/pkg/export"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	unitsFlag    string
	outputDir    string
	workers      int
	manifestPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "spool",
	Short: "Parametric butt-weld fitting generator",
	Long: "Generates bevel-ready pipe, elbows, tees, crosses and RTJ flanges as 3MF files.\n" +
		"Single fittings come from flags; catalogs come from zygomys scripts.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $"+config.EnvPath+" or ./"+config.DefaultFile+")")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&unitsFlag, "units", "u", "", "Model units: inch or millimeter")
	RootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "", "Output directory")
	RootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Batch workers (default: number of CPUs)")
	RootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "Manifest database path")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if unitsFlag != "" {
		u, err := export.ParseUnits(unitsFlag)
		if err != nil {
			return nil, err
		}
		cfg.Units = u
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if manifestPath != "" {
		cfg.ManifestPath = manifestPath
	}
	return cfg, cfg.Validate()
}

// openApp loads the config and builds the App. The caller closes it.
func openApp(ctx context.Context) *App {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		exitErr("start", err)
	}
	return app
}

func readScript(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		exitErr("read script", err)
	}
	return string(b)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
