// Package observability provides a metrics extension for Clubhouse that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/plugin"
	"github.com/xraph/clubhouse/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnClubCreated         = (*MetricsExtension)(nil)
	_ plugin.OnClubOwnerChanged    = (*MetricsExtension)(nil)
	_ plugin.OnAnnualExpenseSet    = (*MetricsExtension)(nil)
	_ plugin.OnMembershipRequested = (*MetricsExtension)(nil)
	_ plugin.OnMemberAdded         = (*MetricsExtension)(nil)
	_ plugin.OnMembershipExpired   = (*MetricsExtension)(nil)
	_ plugin.OnTickProcessed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Clubhouse plugin to track club and membership activity.
type MetricsExtension struct {
	factory MetricFactory

	// Club metrics
	ClubCreated      Counter
	ClubOwnerChanged Counter
	ClubFeeChanged   Counter

	// Membership metrics
	MembershipRequested Counter
	RenewalRequested    Counter
	MembershipCost      Histogram
	MemberAdmitted      Counter
	MembershipExpired   Counter

	// Scheduler metrics
	TicksProcessed  Counter
	ExpiriesPerTick Histogram
	TickLatency     Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ClubCreated:      factory.Counter("clubhouse.club.created"),
		ClubOwnerChanged: factory.Counter("clubhouse.club.owner_changed"),
		ClubFeeChanged:   factory.Counter("clubhouse.club.fee_changed"),

		MembershipRequested: factory.Counter("clubhouse.membership.requested"),
		RenewalRequested:    factory.Counter("clubhouse.membership.renewal_requested"),
		MembershipCost:      factory.Histogram("clubhouse.membership.cost"),
		MemberAdmitted:      factory.Counter("clubhouse.membership.admitted"),
		MembershipExpired:   factory.Counter("clubhouse.membership.expired"),

		TicksProcessed:  factory.Counter("clubhouse.scheduler.ticks"),
		ExpiriesPerTick: factory.Histogram("clubhouse.scheduler.expiries_per_tick"),
		TickLatency:     factory.Histogram("clubhouse.scheduler.tick.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Club hooks
// ──────────────────────────────────────────────────

// OnClubCreated implements plugin.OnClubCreated.
func (m *MetricsExtension) OnClubCreated(_ context.Context, _ *event.ClubCreated) error {
	m.ClubCreated.Inc()
	return nil
}

// OnClubOwnerChanged implements plugin.OnClubOwnerChanged.
func (m *MetricsExtension) OnClubOwnerChanged(_ context.Context, _ *event.ClubOwnerChanged) error {
	m.ClubOwnerChanged.Inc()
	return nil
}

// OnAnnualExpenseSet implements plugin.OnAnnualExpenseSet.
func (m *MetricsExtension) OnAnnualExpenseSet(_ context.Context, _ *event.AnnualExpenseSet) error {
	m.ClubFeeChanged.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMembershipRequested implements plugin.OnMembershipRequested.
func (m *MetricsExtension) OnMembershipRequested(_ context.Context, ev *event.MembershipRequested) error {
	if ev.IsRenewal {
		m.RenewalRequested.Inc()
	} else {
		m.MembershipRequested.Inc()
	}
	m.MembershipCost.Observe(float64(ev.Cost))
	return nil
}

// OnMemberAdded implements plugin.OnMemberAdded.
func (m *MetricsExtension) OnMemberAdded(_ context.Context, _ *event.MemberAdded) error {
	m.MemberAdmitted.Inc()
	return nil
}

// OnMembershipExpired implements plugin.OnMembershipExpired.
func (m *MetricsExtension) OnMembershipExpired(_ context.Context, _ *event.MembershipExpired) error {
	m.MembershipExpired.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Scheduler hooks
// ──────────────────────────────────────────────────

// OnTickProcessed implements plugin.OnTickProcessed.
func (m *MetricsExtension) OnTickProcessed(_ context.Context, _ types.Tick, processed int, elapsed time.Duration) error {
	m.TicksProcessed.Inc()
	m.ExpiriesPerTick.Observe(float64(processed))
	m.TickLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
