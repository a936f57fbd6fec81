package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/gashu/internal/config"
)

// GlobalOptions are shared by every command.
type GlobalOptions struct {
	// ConfigPath names the YAML file; empty reads gashu.yaml if present.
	ConfigPath string
	Debug      bool
}

// loadConfig reads the settings and builds the logger they describe.
func loadConfig(opts GlobalOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := createLogger(cfg.Log, opts.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
