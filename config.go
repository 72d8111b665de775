package clubhouse

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Default configuration values.
const (
	DefaultCreationFee          types.Balance = 100
	DefaultTicksPerDurationUnit types.Tick    = 10
	DefaultMaxDurationUnits     uint8         = 100
)

// Config holds the engine's deployment parameters. It is immutable once the
// engine is built.
type Config struct {
	// RootAccount is the only account allowed to create clubs. When nil,
	// CreateClub fails with ErrNoRootConfigured.
	RootAccount id.AccountID `json:"root_account" mapstructure:"root_account" yaml:"root_account" env:"CLUBHOUSE_ROOT_ACCOUNT"`

	// SinkAccount receives every fee. Defaults to id.SinkAccount.
	SinkAccount id.AccountID `json:"sink_account" mapstructure:"sink_account" yaml:"sink_account" env:"CLUBHOUSE_SINK_ACCOUNT"`

	// CreationFee is charged to root per club created.
	CreationFee types.Balance `json:"creation_fee" mapstructure:"creation_fee" yaml:"creation_fee" env:"CLUBHOUSE_CREATION_FEE"`

	// TicksPerDurationUnit converts a requested duration into ticks.
	TicksPerDurationUnit types.Tick `json:"ticks_per_duration_unit" mapstructure:"ticks_per_duration_unit" yaml:"ticks_per_duration_unit" env:"CLUBHOUSE_TICKS_PER_DURATION_UNIT"`

	// MaxDurationUnits caps a single request.
	MaxDurationUnits uint8 `json:"max_duration_units" mapstructure:"max_duration_units" yaml:"max_duration_units" env:"CLUBHOUSE_MAX_DURATION_UNITS"`

	// TickInterval drives the background tick worker. Zero disables it and
	// leaves tick processing to the host.
	TickInterval time.Duration `json:"tick_interval" mapstructure:"tick_interval" yaml:"tick_interval" env:"CLUBHOUSE_TICK_INTERVAL"`
}

// DefaultConfig returns the default configuration. RootAccount is left
// unset.
func DefaultConfig() Config {
	return Config{
		SinkAccount:          id.SinkAccount,
		CreationFee:          DefaultCreationFee,
		TicksPerDurationUnit: DefaultTicksPerDurationUnit,
		MaxDurationUnits:     DefaultMaxDurationUnits,
	}
}

// LoadConfigFromEnv overlays CLUBHOUSE_* environment variables onto
// DefaultConfig and validates the result.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("clubhouse: parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs MultiError

	if c.SinkAccount.IsNil() {
		errs.Add(ValidationError{Field: "sink_account", Message: "must be set"})
	}
	if !c.RootAccount.IsNil() && c.RootAccount == c.SinkAccount {
		errs.Add(ValidationError{Field: "root_account", Message: "must differ from sink_account"})
	}
	if c.TicksPerDurationUnit == 0 {
		errs.Add(ValidationError{Field: "ticks_per_duration_unit", Message: "must be greater than zero"})
	}
	if c.MaxDurationUnits == 0 {
		errs.Add(ValidationError{Field: "max_duration_units", Message: "must be greater than zero"})
	}
	if c.TickInterval < 0 {
		errs.Add(ValidationError{Field: "tick_interval", Message: "must not be negative"})
	}

	return errs.ErrorOrNil()
}
