// Package audithook bridges Clubhouse lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnClubCreated         = (*Extension)(nil)
	_ plugin.OnClubOwnerChanged    = (*Extension)(nil)
	_ plugin.OnAnnualExpenseSet    = (*Extension)(nil)
	_ plugin.OnMembershipRequested = (*Extension)(nil)
	_ plugin.OnMemberAdded         = (*Extension)(nil)
	_ plugin.OnMembershipExpired   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Clubhouse lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Club hooks
// ──────────────────────────────────────────────────

// OnClubCreated implements plugin.OnClubCreated.
func (e *Extension) OnClubCreated(ctx context.Context, ev *event.ClubCreated) error {
	return e.record(ctx, ActionClubCreated, SeverityInfo, OutcomeSuccess,
		ResourceClub, clubResource(ev.ClubID), CategoryGovernance,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
		"owner", ev.Owner.String(),
		"fee", uint64(ev.Fee),
	)
}

// OnClubOwnerChanged implements plugin.OnClubOwnerChanged.
func (e *Extension) OnClubOwnerChanged(ctx context.Context, ev *event.ClubOwnerChanged) error {
	return e.record(ctx, ActionClubOwnerChanged, SeverityWarning, OutcomeSuccess,
		ResourceClub, clubResource(ev.ClubID), CategoryGovernance,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
		"old_owner", ev.OldOwner.String(),
		"new_owner", ev.NewOwner.String(),
	)
}

// OnAnnualExpenseSet implements plugin.OnAnnualExpenseSet.
func (e *Extension) OnAnnualExpenseSet(ctx context.Context, ev *event.AnnualExpenseSet) error {
	return e.record(ctx, ActionClubFeeChanged, SeverityInfo, OutcomeSuccess,
		ResourceClub, clubResource(ev.ClubID), CategoryGovernance,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
		"old_fee", uint64(ev.OldFee),
		"new_fee", uint64(ev.NewFee),
	)
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMembershipRequested implements plugin.OnMembershipRequested.
func (e *Extension) OnMembershipRequested(ctx context.Context, ev *event.MembershipRequested) error {
	action := ActionMembershipRequested
	if ev.IsRenewal {
		action = ActionRenewalRequested
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceMembership, memberResource(ev.Account.String(), ev.ClubID), CategoryPayment,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
		"cost", uint64(ev.Cost),
		"duration", ev.Duration,
	)
}

// OnMemberAdded implements plugin.OnMemberAdded.
func (e *Extension) OnMemberAdded(ctx context.Context, ev *event.MemberAdded) error {
	return e.record(ctx, ActionMemberAdmitted, SeverityInfo, OutcomeSuccess,
		ResourceMembership, memberResource(ev.Account.String(), ev.ClubID), CategoryAccess,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
		"is_renewal", ev.IsRenewal,
		"expires_at", uint64(ev.ExpiresAt),
	)
}

// OnMembershipExpired implements plugin.OnMembershipExpired.
func (e *Extension) OnMembershipExpired(ctx context.Context, ev *event.MembershipExpired) error {
	return e.record(ctx, ActionMembershipExpired, SeverityInfo, OutcomeSuccess,
		ResourceMembership, memberResource(ev.Account.String(), ev.ClubID), CategoryAccess,
		"event_id", ev.ID.String(),
		"tick", uint64(ev.Tick),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func clubResource(clubID uint64) string {
	return strconv.FormatUint(clubID, 10)
}

func memberResource(account string, clubID uint64) string {
	return account + "@" + clubResource(clubID)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
