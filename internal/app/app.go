package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/claims-portal/internal/crossref"
	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/logger"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/store"
	appsync "github.com/nhle/claims-portal/internal/sync"
	"github.com/nhle/claims-portal/internal/toast"
	"github.com/nhle/claims-portal/internal/ui"
	"github.com/nhle/claims-portal/internal/ui/claimdetail"
	"github.com/nhle/claims-portal/internal/ui/claimlist"
	"github.com/nhle/claims-portal/internal/ui/command"
	helpview "github.com/nhle/claims-portal/internal/ui/help"
	"github.com/nhle/claims-portal/internal/ui/login"
	"github.com/nhle/claims-portal/internal/ui/notifications"
)

// sessionExpiredNotice is shown on the login form after a 401.
const sessionExpiredNotice = "Your session has expired. Please sign in again."

// summaryHeight is the number of lines the summary strip occupies.
const summaryHeight = 3

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewDetail
	ViewNotifications
	ViewHelp
	ViewCommand
)

// Deps are the services the root model drives.
type Deps struct {
	Auth          Auth
	Claims        ClaimsService
	Sync          *appsync.RealtimeSync
	Notifications store.NotificationStore
	Toasts        *toast.Store
	Log           *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the claims sync lifecycle.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	auth          Auth
	claims        ClaimsService
	sync          *appsync.RealtimeSync
	notifications store.NotificationStore
	toasts        *toast.Store
	log           *slog.Logger

	loginView   login.Model
	claimList   claimlist.Model
	detail      claimdetail.Model
	notifView   notifications.Model
	helpView    helpview.Model
	commandView command.Model
	principal   *model.Payor
	snapshot    appsync.Snapshot
	unreadCount int
	ready       bool
	now         func() time.Time
}

// New creates the root model. The dashboard is shown straight away when
// the stored session is still valid; otherwise the login form is.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	log := d.Log
	if log == nil {
		log = logger.Get()
	}

	m := Model{
		currentView:   ViewLogin,
		keys:          k,
		auth:          d.Auth,
		claims:        d.Claims,
		sync:          d.Sync,
		notifications: d.Notifications,
		toasts:        d.Toasts,
		log:           log,
		loginView:     login.New("", 80, 24),
		claimList:     claimlist.New(k, 80, 24-summaryHeight),
		detail:        claimdetail.New(k, 80, 24),
		notifView:     notifications.New(d.Notifications, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		now:           time.Now,
	}

	if p := d.Auth.Principal(); p != nil {
		m.principal = p
		m.currentView = ViewDashboard
		m.snapshot.Loading = true
	}
	return m
}

// Init starts the update and toast waiters, and either the sync loop or
// the login form.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.sync.WaitForUpdate(),
		m.waitForToasts(),
		m.fetchUnreadCount(),
	}
	if m.principal != nil {
		cmds = append(cmds, m.startSync(m.principal))
	} else {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.UpdatedMsg:
		return m.applySnapshot(msg.Snapshot)

	case syncStartedMsg:
		return m, nil

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case toastsChangedMsg:
		return m, m.waitForToasts()

	case login.SubmitMsg:
		return m, m.login(msg.Email, msg.Password)

	case login.CancelMsg:
		return m, tea.Quit

	case loginResultMsg:
		if msg.err != nil {
			m.log.Info("payor login failed", slog.Any("error", msg.err))
			cmd := m.loginView.Fail(loginError(msg.err))
			return m, cmd
		}
		m.principal = msg.payor
		m.snapshot = appsync.Snapshot{Loading: true}
		m.currentView = ViewDashboard
		m.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeSuccess,
			Title:   "Signed In",
			Message: "Welcome, " + displayName(msg.payor),
		})
		return m, m.startSync(msg.payor)

	case logoutDoneMsg:
		m.principal = nil
		m.snapshot = appsync.Snapshot{}
		m.unreadCount = 0
		m.detail = claimdetail.New(m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
		m.loginView = login.New("", m.layout.ContentWidth(), m.layout.ContentHeight())
		m.loginView.SetNotice(msg.notice)
		m.currentView = ViewLogin
		cmd := m.claimList.SetClaims(nil)
		return m, tea.Batch(cmd, m.loginView.Init())

	case claimlist.SelectedClaimMsg:
		m.detail.SetClaim(msg.Claim)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case claimdetail.BackMsg:
		m.currentView = ViewDashboard
		return m, nil

	case claimdetail.ActionMsg:
		claim, ok := m.detail.Claim()
		if !ok || claim.ClaimID != msg.ClaimID {
			claim = model.Claim{ClaimID: msg.ClaimID}
		}
		return m, m.updateClaimStatus(claim, msg.Update)

	case actionResultMsg:
		m.detail.ClearBusy()
		if msg.err != nil {
			m.toastError("Update Failed", msg.err)
			return m, nil
		}
		m.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeSuccess,
			Title:   "Claim Updated",
			Message: fmt.Sprintf("Claim %s marked %s", msg.claimID, msg.status.Label()),
		})
		return m, m.refresh(false)

	case claimdetail.PoliciesRequestMsg:
		return m, m.loadPolicies()

	case policiesLoadedMsg:
		if msg.err != nil {
			m.detail.ClearBusy()
			m.toastError("Policies Unavailable", msg.err)
			return m, nil
		}
		cmd := m.detail.StartPolicySelect(msg.policies)
		return m, cmd

	case claimdetail.EvaluateMsg:
		return m, m.evaluatePreAuth(msg.Claim, msg.PolicyNumber)

	case evaluatedMsg:
		if msg.err != nil {
			m.detail.ClearBusy()
			m.toastError("Evaluation Failed", msg.err)
			return m, nil
		}
		m.detail.SetDecision(msg.decision)
		m.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeInfo,
			Title:   "Pre-Authorization",
			Message: fmt.Sprintf("Claim %s: %s", msg.claimID, decisionText(msg.decision)),
		})
		return m, nil

	case notifications.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case notifications.ChangedMsg:
		return m, m.fetchUnreadCount()

	case notifications.OpenClaimMsg:
		for _, c := range m.snapshot.Claims {
			if c.ClaimID == msg.ClaimID {
				m.detail.SetClaim(c)
				m.previousView = ViewNotifications
				m.currentView = ViewDetail
				return m, nil
			}
		}
		m.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeWarning,
			Title:   "Claim Not Loaded",
			Message: fmt.Sprintf("Claim %s is not in the current list", msg.ClaimID),
		})
		return m, nil

	case searchResultMsg:
		if msg.err != nil {
			m.toastError("Search Failed", msg.err)
			return m, nil
		}
		m.currentView = ViewDashboard
		cmd := m.claimList.ShowResults(msg.term, msg.claims)
		return m, cmd

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case command.UnknownMsg:
		m.currentView = m.previousView
		m.toasts.AddToast(model.ToastDraft{
			Type:    model.ToastTypeError,
			Title:   "Unknown Command",
			Message: fmt.Sprintf("%q is not a command", msg.Input),
		})
		return m, nil

	case tea.KeyMsg:
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// applySnapshot pushes a sync result into the views and re-arms the
// update waiter.
func (m Model) applySnapshot(s appsync.Snapshot) (tea.Model, tea.Cmd) {
	wait := m.sync.WaitForUpdate()
	if m.principal == nil {
		// A cycle that finished after logout.
		return m, wait
	}

	if s.AuthExpired {
		m.log.Info("payor session expired")
		return m, tea.Batch(wait, m.logout(sessionExpiredNotice))
	}

	m.snapshot = s
	for _, c := range s.Claims {
		if cur, ok := m.detail.Claim(); ok && cur.ClaimID == c.ClaimID {
			m.detail.UpdateClaim(c)
			break
		}
	}
	listCmd := m.claimList.SetClaims(s.Claims)
	return m, tea.Batch(wait, listCmd, m.fetchUnreadCount())
}

// handleGlobalKey processes keys that work across views. ok is false
// when the key should go to the active view instead.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.sync.Stop()
		return m, tea.Quit, true
	}
	if m.currentView == ViewCommand && key.Matches(msg, m.keys.Back) {
		m.currentView = m.previousView
		return m, nil, true
	}
	if m.inputFocused() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewDashboard {
			m.sync.Stop()
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewDashboard || m.currentView == ViewDetail {
			return m, m.refresh(true), true
		}

	case key.Matches(msg, m.keys.Notifications):
		if m.currentView == ViewDashboard {
			m.previousView = m.currentView
			m.currentView = ViewNotifications
			return m, m.notifView.Load(), true
		}
	}
	return m, nil, false
}

// inputFocused reports whether the active view is capturing text.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewLogin, ViewCommand:
		return true
	case ViewDashboard:
		return m.claimList.Searching()
	case ViewDetail:
		return m.detail.Mode() != claimdetail.ModeView
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.claimList, cmd = m.claimList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	if m.principal == nil && c.Name != command.Quit {
		return nil
	}

	switch c.Name {
	case command.Refresh:
		return m.refresh(true)
	case command.Notifications:
		m.previousView = ViewDashboard
		m.currentView = ViewNotifications
		return m.notifView.Load()
	case command.MarkAllRead:
		return m.notifyMutation(m.notifications.MarkAllAsRead, "All notifications marked as read")
	case command.ClearNotifications:
		return m.notifyMutation(m.notifications.ClearAll, "Notifications cleared")
	case command.Search:
		if c.Arg == "" {
			return m.claimList.ClearResults()
		}
		if claim, ok := m.loadedClaimRef(c.Arg); ok {
			m.detail.SetClaim(claim)
			m.previousView = ViewDashboard
			m.currentView = ViewDetail
			return nil
		}
		return m.search(c.Arg)
	case command.ClearSearch:
		return m.claimList.ClearResults()
	case command.Logout:
		return m.logout("")
	case command.Quit:
		m.sync.Stop()
		return tea.Quit
	}
	return nil
}

// loadedClaimRef returns the loaded claim when term is exactly one
// claim id from the current snapshot.
func (m Model) loadedClaimRef(term string) (model.Claim, bool) {
	known := make(map[string]bool, len(m.snapshot.Claims))
	for _, c := range m.snapshot.Claims {
		known[c.ClaimID] = true
	}
	refs := crossref.MatchClaimRefs(term, known)
	if len(refs) != 1 || strings.TrimSpace(term) != refs[0] {
		return model.Claim{}, false
	}
	for _, c := range m.snapshot.Claims {
		if c.ClaimID == refs[0] {
			return c, true
		}
	}
	return model.Claim{}, false
}

func (m *Model) resize() {
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.loginView.SetSize(w, h)
	m.claimList.SetSize(w, max(h-summaryHeight, 1))
	m.detail.SetSize(w, h)
	m.notifView.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
}

func (m *Model) toastError(title string, err error) {
	m.log.Warn(title, slog.Any("error", err))
	m.toasts.AddToast(model.ToastDraft{
		Type:    model.ToastTypeError,
		Title:   title,
		Message: err.Error(),
	})
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	banner := ""
	if m.principal != nil && m.snapshot.Err != nil {
		banner = m.layout.RenderBanner(m.snapshot.Err.Error())
	}
	toasts := m.layout.RenderToasts(m.toasts.List())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), toasts, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		summary := ui.RenderSummary(m.snapshot.Summary, m.layout.ContentWidth())
		return summary + "\n" + m.claimList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) headerTitle() string {
	title := "Claims Portal"
	if m.principal != nil {
		title += " · " + displayName(m.principal)
	}
	if m.unreadCount > 0 {
		title = fmt.Sprintf("%s [%d new]", title, m.unreadCount)
	}
	return title
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	switch {
	case m.principal == nil:
		return "signed out"
	case m.snapshot.Loading:
		return "loading..."
	case m.snapshot.Err != nil:
		return "⚠ sync failed"
	case m.snapshot.LastFetch.IsZero():
		return "waiting"
	default:
		return "updated " + ui.RelativeTime(m.snapshot.LastFetch, m.now())
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "tab next field | enter submit | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | a approve | d deny | i request info | e evaluate pre-auth | r refresh"
	case ViewNotifications:
		return "enter open | m read | M read all | x remove | C clear | u unread only | esc back"
	default:
		if filterSummary := m.claimList.FilterSummary(); filterSummary != "" {
			return filterSummary + " | esc clear"
		}
		return "q quit | ? help | / search | tab priority | n notifications | r refresh | : command"
	}
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

func displayName(p *model.Payor) string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	case p.Organization != "":
		return p.Organization
	default:
		return p.Email
	}
}

func decisionText(d *model.PreAuthDecision) string {
	if d == nil {
		return "no decision"
	}
	if d.Message != "" {
		return d.Message
	}
	if d.Approved {
		return "approved"
	}
	return d.Status
}
