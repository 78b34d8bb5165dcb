package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
)

// #region config
// Config is the process configuration shared by the daemon and the CLIs.
type Config struct {
	DBPath            string `env:"LUDICS_DB"                   envDefault:"ludics.db"`
	GRPCAddr          string `env:"LUDICS_GRPC_ADDR"            envDefault:"localhost:50061"`
	MetricsAddr       string `env:"LUDICS_METRICS_ADDR"         envDefault:":9464"`
	MaxPairs          int    `env:"LUDICS_MAX_PAIRS"            envDefault:"256"`
	Window            int    `env:"LUDICS_VISIBILITY_WINDOW"    envDefault:"1"`
	MaxCounterDesigns int    `env:"LUDICS_MAX_COUNTER_DESIGNS"  envDefault:"64"`
	PropagationMode   string `env:"LUDICS_PROPAGATION_MODE"     envDefault:"full"`
	TypeMethod        string `env:"LUDICS_TYPE_METHOD"          envDefault:"combined"`
	Workers           int    `env:"LUDICS_WORKERS"              envDefault:"4"`
	LogLevel          string `env:"LUDICS_LOG_LEVEL"            envDefault:"info"`
	LogJSON           bool   `env:"LUDICS_LOG_JSON"             envDefault:"true"`
}

// Default returns the values the env tags default to.
func Default() Config {
	return Config{
		DBPath:            "ludics.db",
		GRPCAddr:          "localhost:50061",
		MetricsAddr:       ":9464",
		MaxPairs:          256,
		Window:            1,
		MaxCounterDesigns: 64,
		PropagationMode:   string(propagation.ModeFull),
		TypeMethod:        string(typing.MethodCombined),
		Workers:           4,
		LogLevel:          "info",
		LogJSON:           true,
	}
}

// #endregion config

// #region load
// Load parses the environment over the defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no engine component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxPairs <= 0 {
		errs = append(errs, fmt.Errorf("LUDICS_MAX_PAIRS must be positive, got %d", c.MaxPairs))
	}
	if c.Window < 0 {
		errs = append(errs, fmt.Errorf("LUDICS_VISIBILITY_WINDOW must not be negative, got %d", c.Window))
	}
	if c.MaxCounterDesigns < 0 {
		errs = append(errs, fmt.Errorf("LUDICS_MAX_COUNTER_DESIGNS must not be negative, got %d", c.MaxCounterDesigns))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("LUDICS_WORKERS must be positive, got %d", c.Workers))
	}
	if c.PropagationMode != string(propagation.ModeFull) && c.PropagationMode != string(propagation.ModeLight) {
		errs = append(errs, fmt.Errorf("LUDICS_PROPAGATION_MODE must be full or light, got %q", c.PropagationMode))
	}
	if _, err := typing.ParseMethod(c.TypeMethod); err != nil {
		errs = append(errs, fmt.Errorf("LUDICS_TYPE_METHOD %q: %w", c.TypeMethod, err))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("LUDICS_DB must not be empty"))
	}
	return errors.Join(errs...)
}

// #endregion load
