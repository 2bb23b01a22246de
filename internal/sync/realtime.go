// Package sync keeps a near-real-time view of a payor's claims. It polls
// the payor API, diffs consecutive claim snapshots into notifications, and
// publishes updates to the Bubble Tea runtime.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/claims-portal/internal/logger"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
)

// LoadFailedMessage is shown to the user when a fetch cycle fails as a
// whole.
const LoadFailedMessage = "Failed to load dashboard data. Please try again."

const (
	defaultPollInterval     = 30 * time.Second
	defaultCriticalInterval = 10 * time.Second
	defaultPageSize         = 20
	defaultCriticalPageSize = 5
)

// ClaimsAPI is the part of the payor API the sync loop reads from.
type ClaimsAPI interface {
	GetClaims(ctx context.Context, q payor.ClaimsQuery) (*payor.ClaimsPage, error)
	GetAnalytics(ctx context.Context) (*model.Analytics, error)
	GetClaimsSummary(ctx context.Context) (*model.ClaimsSummary, error)
}

// NotificationSink receives notifications derived from claim changes.
type NotificationSink interface {
	AddNotification(ctx context.Context, draft model.NotificationDraft) (model.Notification, error)
}

// ToastSink receives transient confirmation messages.
type ToastSink interface {
	AddToast(draft model.ToastDraft) model.Toast
}

// LoadError is the orchestration failure of a fetch cycle. Its message is
// always LoadFailedMessage; the underlying cause is available via Unwrap.
type LoadError struct {
	Cause error
}

func (e *LoadError) Error() string { return LoadFailedMessage }

func (e *LoadError) Unwrap() error { return e.Cause }

// Snapshot is a consistent copy of the sync state.
type Snapshot struct {
	Claims    []model.Claim
	Analytics *model.Analytics
	Summary   *model.ClaimsSummary
	Loading   bool
	Err       error
	// LastFetch is zero until the first cycle completes.
	LastFetch time.Time
	// AuthExpired is set when the latest claims request was rejected with
	// 401 and cleared by the next successful one.
	AuthExpired bool
}

// UpdatedMsg is a tea.Msg sent after a fetch cycle has been applied.
type UpdatedMsg struct {
	Snapshot Snapshot
}

// Option configures a RealtimeSync.
type Option func(*RealtimeSync)

// WithLogger sets the logger used for fetch warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *RealtimeSync) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIntervals overrides the primary poll and critical check intervals.
// Non-positive values keep the defaults.
func WithIntervals(poll, critical time.Duration) Option {
	return func(s *RealtimeSync) {
		if poll > 0 {
			s.pollInterval = poll
		}
		if critical > 0 {
			s.criticalInterval = critical
		}
	}
}

// WithPageSizes overrides how many claims a full cycle and a critical check
// request. Non-positive values keep the defaults.
func WithPageSizes(page, critical int) Option {
	return func(s *RealtimeSync) {
		if page > 0 {
			s.pageSize = page
		}
		if critical > 0 {
			s.criticalPageSize = critical
		}
	}
}

// WithClock replaces the time source for LastFetch.
func WithClock(now func() time.Time) Option {
	return func(s *RealtimeSync) {
		if now != nil {
			s.now = now
		}
	}
}

// RealtimeSync polls the claims API for one payor and keeps the latest
// claims, analytics and summary.
type RealtimeSync struct {
	api           ClaimsAPI
	notifications NotificationSink
	toasts        ToastSink
	sched         Scheduler
	log           *slog.Logger
	now           func() time.Time

	pollInterval     time.Duration
	criticalInterval time.Duration
	pageSize         int
	criticalPageSize int

	updates chan struct{}

	mu          gosync.Mutex
	principal   *model.Payor
	cancel      context.CancelFunc
	handles     []Handle
	claims      []model.Claim
	analytics   *model.Analytics
	summary     *model.ClaimsSummary
	loading     bool
	err         error
	lastFetch   time.Time
	authExpired bool
}

// NewRealtimeSync creates a stopped RealtimeSync. A nil scheduler uses
// TickerScheduler; a nil toasts sink drops refresh confirmations.
func NewRealtimeSync(
	api ClaimsAPI,
	notifications NotificationSink,
	toasts ToastSink,
	sched Scheduler,
	opts ...Option,
) *RealtimeSync {
	if sched == nil {
		sched = TickerScheduler{}
	}
	s := &RealtimeSync{
		api:              api,
		notifications:    notifications,
		toasts:           toasts,
		sched:            sched,
		log:              logger.Get(),
		now:              time.Now,
		pollInterval:     defaultPollInterval,
		criticalInterval: defaultCriticalInterval,
		pageSize:         defaultPageSize,
		criticalPageSize: defaultCriticalPageSize,
		updates:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start performs the initial load for principal and then schedules the
// primary poll and the critical check. It blocks until the initial load
// has finished. Cancelling ctx abandons the initial load and stops polling.
// A nil principal, or one without a payor id, is a no-op. Calling Start on
// a running instance is a no-op.
//
// State left over from a previous principal is discarded, so the first
// cycle of a new session never diffs against another payor's claims.
func (s *RealtimeSync) Start(ctx context.Context, principal *model.Payor) {
	if principal == nil || principal.PayorID == "" {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.principal = principal
	s.claims = nil
	s.analytics = nil
	s.summary = nil
	s.err = nil
	s.lastFetch = time.Time{}
	s.authExpired = false
	s.loading = true
	s.mu.Unlock()

	s.log.Debug("realtime sync starting",
		slog.String("payor_id", principal.PayorID),
		slog.Duration("poll_interval", s.pollInterval),
		slog.Duration("critical_interval", s.criticalInterval),
	)

	s.run(ctx, true, false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		// Stopped during the initial load.
		return
	}
	s.handles = []Handle{
		s.sched.Every(s.pollInterval, func() { s.run(ctx, false, false) }),
		s.sched.Every(s.criticalInterval, func() { s.criticalCheck(ctx) }),
	}
}

// Refresh runs one full fetch cycle. A manual cycle that completes posts a
// single "Data Updated" toast. Refresh does nothing before Start.
func (s *RealtimeSync) Refresh(ctx context.Context, manual bool) {
	if !s.Running() {
		return
	}
	s.run(ctx, false, manual)
}

// RefreshCmd returns a tea.Cmd that runs a manual refresh and reports the
// resulting state.
func (s *RealtimeSync) RefreshCmd() tea.Cmd {
	return func() tea.Msg {
		s.Refresh(context.Background(), true)
		return UpdatedMsg{Snapshot: s.Snapshot()}
	}
}

// Stop cancels both scheduled tasks and any in-flight cycle started by
// them. A scheduled cycle still in flight does not apply its results
// after Stop returns.
func (s *RealtimeSync) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	handles := s.handles
	s.cancel, s.handles = nil, nil
	if cancel != nil {
		cancel()
	}
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	for _, h := range handles {
		h.Stop()
	}
	s.log.Debug("realtime sync stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (s *RealtimeSync) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Principal returns the payor the sync was started for.
func (s *RealtimeSync) Principal() *model.Payor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// Claims returns the latest claims in server order.
func (s *RealtimeSync) Claims() []model.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.claims)
}

// Analytics returns the latest analytics, or nil if none was fetched.
func (s *RealtimeSync) Analytics() *model.Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics
}

// Summary returns the latest claims summary, or nil if none was fetched.
func (s *RealtimeSync) Summary() *model.ClaimsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Loading reports whether the initial load is in progress.
func (s *RealtimeSync) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the most recent cycle failure, or nil. It is a *LoadError.
func (s *RealtimeSync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// LastFetch returns when the latest cycle finished, or the zero time.
func (s *RealtimeSync) LastFetch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetch
}

// Snapshot returns the whole state under one lock.
func (s *RealtimeSync) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Claims:      slices.Clone(s.claims),
		Analytics:   s.analytics,
		Summary:     s.summary,
		Loading:     s.loading,
		Err:         s.err,
		LastFetch:   s.lastFetch,
		AuthExpired: s.authExpired,
	}
}

// Updates returns a channel that receives a value after every cycle.
// Notifications coalesce; readers should call Snapshot.
func (s *RealtimeSync) Updates() <-chan struct{} {
	return s.updates
}

// WaitForUpdate returns a tea.Cmd that blocks until the next cycle has
// been applied. Call it again after handling each UpdatedMsg.
func (s *RealtimeSync) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-s.updates
		return UpdatedMsg{Snapshot: s.Snapshot()}
	}
}

// run executes one cycle and turns any failure into the user-visible
// LoadError.
func (s *RealtimeSync) run(ctx context.Context, initial, manual bool) {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()

	defer s.publish()
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, fmt.Errorf("panic in fetch cycle: %v", r))
		}
		if initial {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}
	}()

	if err := s.cycle(ctx, initial, manual); err != nil {
		s.fail(ctx, err)
	}
}

func (s *RealtimeSync) cycle(ctx context.Context, initial, manual bool) error {
	var (
		page                             *payor.ClaimsPage
		analytics                        *model.Analytics
		summary                          *model.ClaimsSummary
		claimsErr, analyticsErr, summErr error
	)

	// Per-endpoint errors are captured, not returned, so every request
	// settles. Only a panic fails the group.
	var g errgroup.Group
	g.Go(settle(func() {
		page, claimsErr = s.api.GetClaims(ctx, payor.ClaimsQuery{Page: 1, Limit: s.pageSize})
	}))
	g.Go(settle(func() {
		analytics, analyticsErr = s.api.GetAnalytics(ctx)
	}))
	g.Go(settle(func() {
		summary, summErr = s.api.GetClaimsSummary(ctx)
	}))
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch cycle interrupted: %w", err)
	}

	var drafts []model.NotificationDraft

	s.mu.Lock()
	// Stop cancels under mu, so a cycle that lost the race never applies.
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("fetch cycle interrupted: %w", err)
	}
	switch {
	case claimsErr != nil:
		s.authExpired = payor.IsAuthError(claimsErr)
	case page == nil:
		// Treated as a failed request rather than an empty result set, so
		// cached claims are kept. The client never returns nil without an
		// error.
		claimsErr = errors.New("empty claims response")
	default:
		if !initial && len(s.claims) > 0 {
			drafts = DeriveNotifications(s.claims, page.Results)
		}
		s.claims = page.Results
		s.authExpired = false
	}
	if analyticsErr == nil && analytics != nil {
		s.analytics = analytics
	}
	if summErr == nil && summary != nil {
		s.summary = summary
	}
	s.lastFetch = s.now()
	s.mu.Unlock()

	if claimsErr != nil {
		s.log.Warn("failed to load claims", slog.String("endpoint", "claims"), slog.Any("error", claimsErr))
	}
	if analyticsErr != nil {
		s.log.Warn("failed to load analytics", slog.String("endpoint", "analytics"), slog.Any("error", analyticsErr))
	}
	if summErr != nil {
		s.log.Warn("failed to load summary", slog.String("endpoint", "summary"), slog.Any("error", summErr))
	}

	for _, d := range drafts {
		if _, err := s.notifications.AddNotification(ctx, d); err != nil {
			return fmt.Errorf("recording notification %q: %w", d.Title, err)
		}
	}
	if len(drafts) > 0 {
		s.log.Info("claim changes detected", slog.Int("notifications", len(drafts)))
	}

	if manual && !initial && s.toasts != nil {
		s.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeSuccess,
			Title:   "Data Updated",
			Message: "Dashboard data has been refreshed successfully",
		})
	}
	return nil
}

// criticalCheck fetches the newest few claims and starts a full cycle when
// the newest one differs from the cached newest claim by id or status.
func (s *RealtimeSync) criticalCheck(ctx context.Context) {
	page, err := s.api.GetClaims(ctx, payor.ClaimsQuery{Page: 1, Limit: s.criticalPageSize})
	if err != nil {
		s.log.Warn("critical update check failed", slog.Any("error", err))
		return
	}
	if page == nil || len(page.Results) == 0 {
		return
	}

	s.mu.Lock()
	var current model.Claim
	hasCurrent := len(s.claims) > 0
	if hasCurrent {
		current = s.claims[0]
	}
	s.mu.Unlock()
	if !hasCurrent {
		return
	}

	latest := page.Results[0]
	if latest.ClaimID != current.ClaimID || latest.Status != current.Status {
		s.log.Debug("critical change detected",
			slog.String("claim_id", latest.ClaimID),
			slog.String("status", string(latest.Status)),
		)
		s.run(ctx, false, false)
	}
}

// fail records err as the cycle's LoadError. A cycle abandoned because its
// context was cancelled (Stop, or the caller giving up) is not an error.
func (s *RealtimeSync) fail(ctx context.Context, err error) {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		s.log.Debug("fetch cycle abandoned", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.err = &LoadError{Cause: err}
	s.mu.Unlock()

	s.log.Error("dashboard data fetch failed", slog.Any("error", err))
}

func (s *RealtimeSync) publish() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// settle adapts fn for errgroup, converting a panic into the group error.
func settle(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in request: %v", r)
			}
		}()
		fn()
		return nil
	}
}
