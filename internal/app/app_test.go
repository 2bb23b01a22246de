package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
	appsync "github.com/nhle/claims-portal/internal/sync"
	"github.com/nhle/claims-portal/internal/testutil"
	"github.com/nhle/claims-portal/internal/toast"
	"github.com/nhle/claims-portal/internal/ui/claimdetail"
	"github.com/nhle/claims-portal/internal/ui/command"
	"github.com/nhle/claims-portal/internal/ui/notifications"
)

var testPayor = &model.Payor{PayorID: "P-1", Email: "reviewer@acme.example", Name: "Acme Health"}

type fakeAuth struct {
	mu        sync.Mutex
	principal *model.Payor
	loginErr  error
	loggedOut bool
}

func (a *fakeAuth) Principal() *model.Payor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.principal
}

func (a *fakeAuth) Login(_ context.Context, email, _ string) (*model.Payor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	a.principal = testPayor
	return testPayor, nil
}

func (a *fakeAuth) Logout(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.principal = nil
	a.loggedOut = true
	return nil
}

type fakeClaims struct {
	mu       sync.Mutex
	claims   []model.Claim
	claimErr error
	updates  map[string]model.ClaimStatusUpdate
	searched string
}

func (f *fakeClaims) GetClaims(context.Context, payor.ClaimsQuery) (*payor.ClaimsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return &payor.ClaimsPage{Results: append([]model.Claim(nil), f.claims...)}, nil
}

func (f *fakeClaims) GetAnalytics(context.Context) (*model.Analytics, error) {
	return &model.Analytics{}, nil
}

func (f *fakeClaims) GetClaimsSummary(context.Context) (*model.ClaimsSummary, error) {
	return &model.ClaimsSummary{TotalClaims: 2, PendingClaims: 1, ApprovedClaims: 1}, nil
}

func (f *fakeClaims) UpdateClaimStatus(_ context.Context, id string, u model.ClaimStatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]model.ClaimStatusUpdate{}
	}
	f.updates[id] = u
	return nil
}

func (f *fakeClaims) EvaluatePreAuth(context.Context, model.Claim, string) (*model.PreAuthDecision, error) {
	return &model.PreAuthDecision{Approved: true, Status: "approved", Message: "Meets policy criteria"}, nil
}

func (f *fakeClaims) GetInsurancePolicies(context.Context) ([]model.InsurancePolicy, error) {
	return []model.InsurancePolicy{{PolicyNumber: "POL-1", Name: "Gold"}}, nil
}

func (f *fakeClaims) SearchClaims(_ context.Context, term string, _, _ int) (*payor.ClaimsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = term
	return &payor.ClaimsPage{Results: []model.Claim{claim("CLM-9", model.ClaimStatusPending)}}, nil
}

type noopHandle struct{}

func (noopHandle) Stop() {}

// idleScheduler never fires; cycles in tests run through Start and
// Refresh only.
type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) appsync.Handle { return noopHandle{} }

func claim(id string, status model.ClaimStatus) model.Claim {
	return model.Claim{
		ClaimID:  id,
		Patient:  &model.Patient{Name: "Patient " + id},
		Amount:   1500,
		Status:   status,
		Priority: model.ClaimPriorityMedium,
	}
}

type harness struct {
	auth   *fakeAuth
	api    *fakeClaims
	toasts *toast.Store
	rs     *appsync.RealtimeSync
	m      Model
}

func newHarness(t *testing.T, principal *model.Payor) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ns := testutil.NewTestStore(t)
	toasts := toast.New(toast.WithAfterFunc(func(time.Duration, func()) func() bool {
		return func() bool { return true }
	}))
	api := &fakeClaims{claims: []model.Claim{
		claim("CLM-1", model.ClaimStatusPending),
		claim("CLM-2", model.ClaimStatusApproved),
	}}
	rs := appsync.NewRealtimeSync(api, ns, toasts, idleScheduler{}, appsync.WithLogger(log))
	auth := &fakeAuth{principal: principal}

	m := New(Deps{Auth: auth, Claims: api, Sync: rs, Notifications: ns, Toasts: toasts, Log: log})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(rs.Stop)
	return &harness{auth: auth, api: api, toasts: toasts, rs: rs, m: next.(Model)}
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// started logs in through the sync loop and applies the first snapshot.
func (h *harness) started(t *testing.T) {
	t.Helper()
	h.rs.Start(context.Background(), h.m.principal)
	h.update(appsync.UpdatedMsg{Snapshot: h.rs.Snapshot()})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func toastTitles(s *toast.Store) []string {
	var titles []string
	for _, t := range s.List() {
		titles = append(titles, t.Title)
	}
	return titles
}

func TestNew_ChoosesInitialView(t *testing.T) {
	assert.Equal(t, ViewLogin, newHarness(t, nil).m.CurrentView())
	assert.Equal(t, ViewDashboard, newHarness(t, testPayor).m.CurrentView())
}

func TestLoginSuccessStartsSync(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.update(loginResultMsg{payor: testPayor})
	assert.Equal(t, ViewDashboard, h.m.CurrentView())
	assert.Contains(t, toastTitles(h.toasts), "Signed In")

	require.NotNil(t, cmd)
	assert.IsType(t, syncStartedMsg{}, cmd())
	assert.True(t, h.rs.Running())
	assert.Len(t, h.rs.Claims(), 2)
}

func TestLoginFailureShowsMessage(t *testing.T) {
	h := newHarness(t, nil)

	h.update(loginResultMsg{err: &payor.AuthError{Message: "bad password"}})
	assert.Equal(t, ViewLogin, h.m.CurrentView())
	assert.Contains(t, h.m.View(), "Invalid email or password")
	assert.False(t, h.rs.Running())
}

func TestLoginError(t *testing.T) {
	assert.EqualError(t, loginError(&payor.AuthError{}), "Invalid email or password")
	assert.EqualError(t,
		loginError(&payor.APIError{StatusCode: 503}),
		"Sign in failed (HTTP 503). Please try again.")
	assert.EqualError(t,
		loginError(errors.New("dial tcp: refused")),
		"Unable to reach the claims service. Please try again.")
}

func TestSnapshotFeedsDashboard(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	assert.False(t, h.m.snapshot.Loading)
	assert.Len(t, h.m.claimList.Visible(), 2)

	h.update(unreadCountMsg{count: 2})
	out := h.m.View()
	assert.Contains(t, out, "Acme Health")
	assert.Contains(t, out, "[2 new]")
	assert.Contains(t, out, "CLM-1")
}

func TestSnapshotErrorShowsBanner(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	h.update(appsync.UpdatedMsg{Snapshot: appsync.Snapshot{
		Claims: h.rs.Claims(),
		Err:    &appsync.LoadError{Cause: errors.New("boom")},
	}})
	assert.Contains(t, h.m.View(), appsync.LoadFailedMessage)
}

func TestAuthExpiredLogsOut(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	h.update(appsync.UpdatedMsg{Snapshot: appsync.Snapshot{AuthExpired: true}})

	msg := h.m.logout(sessionExpiredNotice)()
	require.IsType(t, logoutDoneMsg{}, msg)
	assert.True(t, h.auth.loggedOut)
	assert.False(t, h.rs.Running())

	h.update(msg)
	assert.Equal(t, ViewLogin, h.m.CurrentView())
	assert.Contains(t, h.m.View(), "session has expired")
}

func TestSnapshotAfterLogoutIgnored(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.update(appsync.UpdatedMsg{Snapshot: appsync.Snapshot{Claims: []model.Claim{claim("X", "pending")}}})
	assert.NotNil(t, cmd)
	assert.Empty(t, h.m.snapshot.Claims)
}

func TestApproveSendsBilledAmount(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	h.update(appsync.UpdatedMsg{Snapshot: h.rs.Snapshot()})
	h.m.detail.SetClaim(claim("CLM-1", model.ClaimStatusPending))

	cmd := h.update(claimdetail.ActionMsg{
		ClaimID: "CLM-1",
		Update:  model.ClaimStatusUpdate{Status: model.ClaimStatusApproved, Notes: "ok"},
	})
	require.NotNil(t, cmd)
	result := cmd()
	require.IsType(t, actionResultMsg{}, result)

	assert.Equal(t, model.ClaimStatusUpdate{
		Status:         model.ClaimStatusApproved,
		Notes:          "ok",
		ApprovedAmount: "1500.00",
	}, h.api.updates["CLM-1"])

	refresh := h.update(result)
	assert.NotNil(t, refresh)
	assert.Contains(t, toastTitles(h.toasts), "Claim Updated")
}

func TestPreAuthFlow(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)
	c := claim("CLM-1", model.ClaimStatusPending)
	h.m.detail.SetClaim(c)

	cmd := h.update(claimdetail.PoliciesRequestMsg{Claim: c})
	require.NotNil(t, cmd)
	h.update(cmd())
	assert.Equal(t, claimdetail.ModeSelectPolicy, h.m.detail.Mode())

	cmd = h.update(claimdetail.EvaluateMsg{Claim: c, PolicyNumber: "POL-1"})
	require.NotNil(t, cmd)
	h.update(cmd())
	assert.Contains(t, toastTitles(h.toasts), "Pre-Authorization")
}

func TestSearchCommandShowsResults(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	h.update(runes(":"))
	assert.Equal(t, ViewCommand, h.m.CurrentView())

	cmd := h.update(command.CommandMsg{Name: command.Search, Arg: "CLM-9"})
	assert.Equal(t, ViewDashboard, h.m.CurrentView())
	require.NotNil(t, cmd)
	h.update(cmd())

	assert.Equal(t, "CLM-9", h.api.searched)
	assert.True(t, h.m.claimList.ShowingResults())
	require.Len(t, h.m.claimList.Visible(), 1)
	assert.Equal(t, "CLM-9", h.m.claimList.Visible()[0].ClaimID)
}

func TestCommandPaletteEscReturns(t *testing.T) {
	h := newHarness(t, testPayor)

	h.update(runes(":"))
	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewDashboard, h.m.CurrentView())
}

func TestUnknownCommandToasts(t *testing.T) {
	h := newHarness(t, testPayor)

	h.update(command.UnknownMsg{Input: "frob"})
	assert.Contains(t, toastTitles(h.toasts), "Unknown Command")
}

func TestMarkAllReadCommand(t *testing.T) {
	h := newHarness(t, testPayor)
	ctx := context.Background()
	_, err := h.m.notifications.AddNotification(ctx, model.NotificationDraft{
		Type: model.NotificationTypeClaim, Title: "New Claim Received", Message: "m",
	})
	require.NoError(t, err)

	cmd := h.update(command.CommandMsg{Name: command.MarkAllRead})
	require.NotNil(t, cmd)
	assert.IsType(t, notifications.ChangedMsg{}, cmd())

	count, err := h.m.notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenUnknownClaimFromNotification(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	h.update(notifications.OpenClaimMsg{ClaimID: "CLM-404"})
	assert.Equal(t, ViewDashboard, h.m.CurrentView())
	assert.Contains(t, toastTitles(h.toasts), "Claim Not Loaded")

	h.update(notifications.OpenClaimMsg{ClaimID: "CLM-2"})
	assert.Equal(t, ViewDetail, h.m.CurrentView())
	got, ok := h.m.detail.Claim()
	require.True(t, ok)
	assert.Equal(t, "CLM-2", got.ClaimID)
}

func TestGlobalKeys(t *testing.T) {
	h := newHarness(t, testPayor)

	h.update(runes("?"))
	assert.Equal(t, ViewHelp, h.m.CurrentView())
	h.update(runes("?"))
	assert.Equal(t, ViewDashboard, h.m.CurrentView())

	h.update(runes("n"))
	assert.Equal(t, ViewNotifications, h.m.CurrentView())
	h.update(notifications.CloseMsg{})
	assert.Equal(t, ViewDashboard, h.m.CurrentView())

	cmd := h.update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLoginViewDoesNotSwallowTyping(t *testing.T) {
	h := newHarness(t, nil)

	h.update(runes("q"))
	h.update(runes("?"))
	assert.Equal(t, ViewLogin, h.m.CurrentView())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Acme Health", displayName(testPayor))
	assert.Equal(t, "Acme", displayName(&model.Payor{Organization: "Acme", Email: "a@b"}))
	assert.Equal(t, "a@b", displayName(&model.Payor{Email: "a@b"}))
	assert.Empty(t, displayName(nil))
}

func TestSearchForLoadedClaimOpensDetail(t *testing.T) {
	h := newHarness(t, testPayor)
	h.started(t)

	cmd := h.update(command.CommandMsg{Name: command.Search, Arg: "CLM-2"})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewDetail, h.m.CurrentView())
	got, ok := h.m.detail.Claim()
	require.True(t, ok)
	assert.Equal(t, "CLM-2", got.ClaimID)
	assert.Empty(t, h.api.searched)
}
