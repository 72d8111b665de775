package extension

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{CreationFee: 250})

	if cfg.CreationFee != 250 {
		t.Errorf("creation fee = %d, want 250", cfg.CreationFee)
	}
	if cfg.TicksPerDurationUnit != 10 || cfg.MaxDurationUnits != 100 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.SinkAccount != id.SinkAccount.String() {
		t.Errorf("sink = %q", cfg.SinkAccount)
	}
}

func TestMergeConfigurations(t *testing.T) {
	root := id.NewAccountID().String()

	yamlCfg := Config{
		TicksPerDurationUnit: 7,
		StoreDriver:          DriverSQLite,
	}
	programmatic := Config{
		DisableMigrate:       true,
		RootAccount:          root,
		TicksPerDurationUnit: 3,
		TickInterval:         time.Second,
		StoreDriver:          DriverMongo,
	}

	got := mergeConfigurations(yamlCfg, programmatic)

	if !got.DisableMigrate {
		t.Error("programmatic DisableMigrate lost")
	}
	if got.RootAccount != root {
		t.Errorf("root = %q, want programmatic value", got.RootAccount)
	}
	if got.TicksPerDurationUnit != 7 {
		t.Errorf("ticks per unit = %d, want file value 7", got.TicksPerDurationUnit)
	}
	if got.StoreDriver != DriverSQLite {
		t.Errorf("driver = %q, want file value", got.StoreDriver)
	}
	if got.TickInterval != time.Second {
		t.Errorf("tick interval = %s, want 1s", got.TickInterval)
	}
	if got.CreationFee != 100 {
		t.Errorf("creation fee = %d, want default", got.CreationFee)
	}
}

func TestEngineConfig(t *testing.T) {
	root := id.NewAccountID()

	t.Run("Valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RootAccount = root.String()
		cfg.TickInterval = time.Minute

		got, err := cfg.engineConfig()
		if err != nil {
			t.Fatal(err)
		}
		if got.RootAccount != root || got.SinkAccount != id.SinkAccount {
			t.Errorf("accounts = %s, %s", got.RootAccount, got.SinkAccount)
		}
		if got.CreationFee != 100 || got.TicksPerDurationUnit != 10 || got.TickInterval != time.Minute {
			t.Errorf("config = %+v", got)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"Bad root", func(c *Config) { c.RootAccount = "nope" }, "root_account"},
		{"Event id as root", func(c *Config) { c.RootAccount = id.NewEventID().String() }, "root_account"},
		{"Bad sink", func(c *Config) { c.SinkAccount = "nope" }, "sink_account"},
		{"Root is sink", func(c *Config) { c.RootAccount = c.SinkAccount }, "root_account"},
		{"Zero rate", func(c *Config) { c.TicksPerDurationUnit = 0 }, "ticks_per_duration_unit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := cfg.engineConfig()
			var verr clubhouse.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	for _, driver := range []string{"", DriverMemory} {
		s, err := openStore(driver, nil)
		if err != nil {
			t.Fatalf("openStore(%q): %v", driver, err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("openStore(%q) = %T, want *memory.Store", driver, s)
		}
	}

	if _, err := openStore(DriverSQLite, nil); err == nil {
		t.Error("sqlite without a database should fail")
	}
	if _, err := openStore("cassandra", nil); err == nil {
		t.Error("unknown driver should fail")
	}
}
