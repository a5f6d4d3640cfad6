package app

import (
	"errors"

	"github.com/vk/exrun/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is an optional HCL settings file. Settings given on the
	// command line take precedence over the file.
	ConfigPath string
	Settings   config.Settings

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	DryRun            bool
	KeepGoingExitZero bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		var errs []error
		if cfg.Settings.SourceDir == "" {
			errs = append(errs, errors.New("source dir is required when no config file is given"))
		}
		if cfg.Settings.ExecDir == "" {
			errs = append(errs, errors.New("exec dir is required when no config file is given"))
		}
		if cfg.Settings.OutputDir == "" {
			errs = append(errs, errors.New("output dir is required when no config file is given"))
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, errors.New("healthcheck port must be between 0 and 65535")
	}

	return &cfg, nil
}
