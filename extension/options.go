package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/plugin"
	"github.com/xraph/clubhouse/store"
)

// Option configures the Clubhouse Forge extension.
type Option func(*Extension)

// WithStore sets the store for the clubhouse engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithFunds sets the ledger that club and membership fees move through.
func WithFunds(f funds.Ledger) Option {
	return func(e *Extension) {
		e.funds = f
	}
}

// WithEngineOption passes a clubhouse.Option through to the underlying engine.
func WithEngineOption(opt clubhouse.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a clubhouse plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, clubhouse.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithRootAccount sets the account allowed to create clubs.
func WithRootAccount(account string) Option {
	return func(e *Extension) { e.config.RootAccount = account }
}

// WithTickInterval sets how often the engine advances the clock on its own.
func WithTickInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.TickInterval = d }
}

// WithGroveDatabase builds the store over db using the given driver
// ("sqlite", "postgres" or "mongo").
func WithGroveDatabase(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.StoreDriver = driver
	}
}
