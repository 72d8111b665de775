package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onClubCreated         []OnClubCreated
	onClubOwnerChanged    []OnClubOwnerChanged
	onAnnualExpenseSet    []OnAnnualExpenseSet
	onMembershipRequested []OnMembershipRequested
	onMemberAdded         []OnMemberAdded
	onMembershipExpired   []OnMembershipExpired
	onEvent               []OnEvent
	onTickProcessed       []OnTickProcessed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnClubCreated); ok {
		r.onClubCreated = append(r.onClubCreated, v)
	}
	if v, ok := p.(OnClubOwnerChanged); ok {
		r.onClubOwnerChanged = append(r.onClubOwnerChanged, v)
	}
	if v, ok := p.(OnAnnualExpenseSet); ok {
		r.onAnnualExpenseSet = append(r.onAnnualExpenseSet, v)
	}
	if v, ok := p.(OnMembershipRequested); ok {
		r.onMembershipRequested = append(r.onMembershipRequested, v)
	}
	if v, ok := p.(OnMemberAdded); ok {
		r.onMemberAdded = append(r.onMemberAdded, v)
	}
	if v, ok := p.(OnMembershipExpired); ok {
		r.onMembershipExpired = append(r.onMembershipExpired, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}
	if v, ok := p.(OnTickProcessed); ok {
		r.onTickProcessed = append(r.onTickProcessed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name  string
	iface reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnClubCreated", reflect.TypeOf((*OnClubCreated)(nil)).Elem()},
	{"OnClubOwnerChanged", reflect.TypeOf((*OnClubOwnerChanged)(nil)).Elem()},
	{"OnAnnualExpenseSet", reflect.TypeOf((*OnAnnualExpenseSet)(nil)).Elem()},
	{"OnMembershipRequested", reflect.TypeOf((*OnMembershipRequested)(nil)).Elem()},
	{"OnMemberAdded", reflect.TypeOf((*OnMemberAdded)(nil)).Elem()},
	{"OnMembershipExpired", reflect.TypeOf((*OnMembershipExpired)(nil)).Elem()},
	{"OnEvent", reflect.TypeOf((*OnEvent)(nil)).Elem()},
	{"OnTickProcessed", reflect.TypeOf((*OnTickProcessed)(nil)).Elem()},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.iface) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// Emit delivers ev to its typed hook, then to every OnEvent plugin.
func (r *Registry) Emit(ctx context.Context, ev event.Event) {
	r.mu.RLock()
	var (
		onClubCreated         = r.onClubCreated
		onClubOwnerChanged    = r.onClubOwnerChanged
		onAnnualExpenseSet    = r.onAnnualExpenseSet
		onMembershipRequested = r.onMembershipRequested
		onMemberAdded         = r.onMemberAdded
		onMembershipExpired   = r.onMembershipExpired
		onEvent               = r.onEvent
	)
	r.mu.RUnlock()

	switch e := ev.(type) {
	case *event.ClubCreated:
		for _, p := range onClubCreated {
			r.call(ctx, p.Name(), "OnClubCreated", func() error {
				return p.OnClubCreated(ctx, e)
			})
		}
	case *event.ClubOwnerChanged:
		for _, p := range onClubOwnerChanged {
			r.call(ctx, p.Name(), "OnClubOwnerChanged", func() error {
				return p.OnClubOwnerChanged(ctx, e)
			})
		}
	case *event.AnnualExpenseSet:
		for _, p := range onAnnualExpenseSet {
			r.call(ctx, p.Name(), "OnAnnualExpenseSet", func() error {
				return p.OnAnnualExpenseSet(ctx, e)
			})
		}
	case *event.MembershipRequested:
		for _, p := range onMembershipRequested {
			r.call(ctx, p.Name(), "OnMembershipRequested", func() error {
				return p.OnMembershipRequested(ctx, e)
			})
		}
	case *event.MemberAdded:
		for _, p := range onMemberAdded {
			r.call(ctx, p.Name(), "OnMemberAdded", func() error {
				return p.OnMemberAdded(ctx, e)
			})
		}
	case *event.MembershipExpired:
		for _, p := range onMembershipExpired {
			r.call(ctx, p.Name(), "OnMembershipExpired", func() error {
				return p.OnMembershipExpired(ctx, e)
			})
		}
	}

	for _, p := range onEvent {
		r.call(ctx, p.Name(), "OnEvent", func() error {
			return p.OnEvent(ctx, ev)
		})
	}
}

// EmitTickProcessed emits a tick processed event.
func (r *Registry) EmitTickProcessed(ctx context.Context, tick types.Tick, processed int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onTickProcessed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnTickProcessed", func() error {
			return p.OnTickProcessed(ctx, tick, processed, elapsed)
		})
	}
}

func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the tick pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
