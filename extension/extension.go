// Package extension provides the Forge extension adapter for Clubhouse.
//
// It implements the forge.Extension interface to integrate the club engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.clubhouse" or
// "clubhouse" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/store"
	"github.com/xraph/clubhouse/store/memory"
	"github.com/xraph/clubhouse/store/mongo"
	"github.com/xraph/clubhouse/store/postgres"
	"github.com/xraph/clubhouse/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "clubhouse"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fee-based club membership engine with tick-scheduled expiry"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Clubhouse as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *clubhouse.Engine
	store      store.Store
	funds      funds.Ledger
	groveDB    *grove.DB
	engineOpts []clubhouse.Option
}

// New creates a new Clubhouse Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *clubhouse.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := openStore(e.config.StoreDriver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}
	if e.funds == nil {
		e.funds = funds.NewMemory(1)
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	eng, err := clubhouse.New(e.store, e.funds, opts...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*clubhouse.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("clubhouse: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("clubhouse: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs clubhouse.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]clubhouse.Option, error) {
	cfg, err := e.config.engineConfig()
	if err != nil {
		return nil, err
	}

	opts := make([]clubhouse.Option, 0, len(e.engineOpts)+2)
	opts = append(opts, clubhouse.WithConfig(cfg))
	if e.config.DisableMigrate {
		opts = append(opts, clubhouse.WithoutMigrate())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// openStore builds the store for driver over db.
func openStore(driver string, db *grove.DB) (store.Store, error) {
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("clubhouse: store driver %q needs a grove database", driver)
	}

	switch driver {
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("clubhouse: unknown store driver %q", driver)
	}
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("clubhouse: configuration is required but not found in config files; " +
				"ensure 'extensions.clubhouse' or 'clubhouse' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("clubhouse: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("root_configured", e.config.RootAccount != ""),
		forge.F("creation_fee", e.config.CreationFee),
		forge.F("ticks_per_duration_unit", e.config.TicksPerDurationUnit),
		forge.F("max_duration_units", e.config.MaxDurationUnits),
		forge.F("tick_interval", e.config.TickInterval),
		forge.F("store_driver", e.config.StoreDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.clubhouse" first (namespaced pattern).
	if cm.IsSet("extensions.clubhouse") {
		if err := cm.Bind("extensions.clubhouse", &cfg); err == nil {
			e.Logger().Debug("clubhouse: loaded config from file",
				forge.F("key", "extensions.clubhouse"),
			)
			return cfg, true
		}
		e.Logger().Warn("clubhouse: failed to bind extensions.clubhouse config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "clubhouse" key.
	if cm.IsSet("clubhouse") {
		if err := cm.Bind("clubhouse", &cfg); err == nil {
			e.Logger().Debug("clubhouse: loaded config from file",
				forge.F("key", "clubhouse"),
			)
			return cfg, true
		}
		e.Logger().Warn("clubhouse: failed to bind clubhouse config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SinkAccount == "" {
		cfg.SinkAccount = defaults.SinkAccount
	}
	if cfg.CreationFee == 0 {
		cfg.CreationFee = defaults.CreationFee
	}
	if cfg.TicksPerDurationUnit == 0 {
		cfg.TicksPerDurationUnit = defaults.TicksPerDurationUnit
	}
	if cfg.MaxDurationUnits == 0 {
		cfg.MaxDurationUnits = defaults.MaxDurationUnits
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.RootAccount == "" {
		yamlConfig.RootAccount = programmaticConfig.RootAccount
	}
	if yamlConfig.SinkAccount == "" {
		yamlConfig.SinkAccount = programmaticConfig.SinkAccount
	}
	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.CreationFee == 0 {
		yamlConfig.CreationFee = programmaticConfig.CreationFee
	}
	if yamlConfig.TicksPerDurationUnit == 0 {
		yamlConfig.TicksPerDurationUnit = programmaticConfig.TicksPerDurationUnit
	}
	if yamlConfig.MaxDurationUnits == 0 {
		yamlConfig.MaxDurationUnits = programmaticConfig.MaxDurationUnits
	}
	if yamlConfig.TickInterval == 0 {
		yamlConfig.TickInterval = programmaticConfig.TickInterval
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
