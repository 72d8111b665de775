package extension

import (
	"time"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Store drivers understood by StoreDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds the Clubhouse extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.clubhouse" or "clubhouse" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RootAccount is the acct_ id allowed to create clubs. Empty leaves
	// club creation disabled.
	RootAccount string `json:"root_account" mapstructure:"root_account" yaml:"root_account"`

	// SinkAccount is the acct_ id receiving fees (default: id.SinkAccount).
	SinkAccount string `json:"sink_account" mapstructure:"sink_account" yaml:"sink_account"`

	// CreationFee is charged to root per club (default: 100).
	CreationFee uint64 `json:"creation_fee" mapstructure:"creation_fee" yaml:"creation_fee"`

	// TicksPerDurationUnit converts durations into ticks (default: 10).
	TicksPerDurationUnit uint64 `json:"ticks_per_duration_unit" mapstructure:"ticks_per_duration_unit" yaml:"ticks_per_duration_unit"`

	// MaxDurationUnits caps a single request (default: 100).
	MaxDurationUnits uint8 `json:"max_duration_units" mapstructure:"max_duration_units" yaml:"max_duration_units"`

	// TickInterval drives the background tick worker. Zero leaves ticking
	// to the host.
	TickInterval time.Duration `json:"tick_interval" mapstructure:"tick_interval" yaml:"tick_interval"`

	// StoreDriver selects the store built around the grove.DB passed with
	// WithGroveDatabase: "sqlite", "postgres" or "mongo". Ignored when a
	// store is set with WithStore; without either the memory store is used.
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SinkAccount:          id.SinkAccount.String(),
		CreationFee:          uint64(clubhouse.DefaultCreationFee),
		TicksPerDurationUnit: uint64(clubhouse.DefaultTicksPerDurationUnit),
		MaxDurationUnits:     clubhouse.DefaultMaxDurationUnits,
	}
}

// engineConfig converts the resolved extension config into the engine's.
func (c Config) engineConfig() (clubhouse.Config, error) {
	cfg := clubhouse.Config{
		CreationFee:          types.Balance(c.CreationFee),
		TicksPerDurationUnit: types.Tick(c.TicksPerDurationUnit),
		MaxDurationUnits:     c.MaxDurationUnits,
		TickInterval:         c.TickInterval,
	}

	if c.RootAccount != "" {
		root, err := id.ParseAccountID(c.RootAccount)
		if err != nil {
			return clubhouse.Config{}, clubhouse.ValidationError{Field: "root_account", Message: err.Error()}
		}
		cfg.RootAccount = root
	}
	if c.SinkAccount != "" {
		sink, err := id.ParseAccountID(c.SinkAccount)
		if err != nil {
			return clubhouse.Config{}, clubhouse.ValidationError{Field: "sink_account", Message: err.Error()}
		}
		cfg.SinkAccount = sink
	}

	if err := cfg.Validate(); err != nil {
		return clubhouse.Config{}, err
	}
	return cfg, nil
}
