package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
	"github.com/nhle/claims-portal/internal/ui/notifications"
)

// searchPageSize is how many server-side search results are shown.
const searchPageSize = 20

type loginResultMsg struct {
	payor *model.Payor
	err   error
}

type syncStartedMsg struct{}

type logoutDoneMsg struct {
	notice string
}

type unreadCountMsg struct {
	count int
}

type toastsChangedMsg struct{}

type actionResultMsg struct {
	claimID string
	status  model.ClaimStatus
	err     error
}

type policiesLoadedMsg struct {
	policies []model.InsurancePolicy
	err      error
}

type evaluatedMsg struct {
	claimID  string
	decision *model.PreAuthDecision
	err      error
}

type searchResultMsg struct {
	term   string
	claims []model.Claim
	err    error
}

// login authenticates in the background.
func (m Model) login(email, password string) tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		p, err := auth.Login(context.Background(), email, password)
		return loginResultMsg{payor: p, err: err}
	}
}

// startSync runs the initial load for p and schedules polling. The
// resulting snapshot arrives through the update waiter.
func (m Model) startSync(p *model.Payor) tea.Cmd {
	rs := m.sync
	return func() tea.Msg {
		rs.Start(context.Background(), p)
		return syncStartedMsg{}
	}
}

// refresh runs one fetch cycle. Its result arrives through the update
// waiter.
func (m Model) refresh(manual bool) tea.Cmd {
	rs := m.sync
	return func() tea.Msg {
		rs.Refresh(context.Background(), manual)
		return nil
	}
}

// logout stops polling, clears local notifications and ends the session.
// notice is shown on the login form afterwards.
func (m Model) logout(notice string) tea.Cmd {
	rs, auth, ns, log := m.sync, m.auth, m.notifications, m.log
	return func() tea.Msg {
		ctx := context.Background()
		rs.Stop()
		if err := ns.ClearAll(ctx); err != nil {
			log.Warn("clearing notifications on logout", slog.Any("error", err))
		}
		if err := auth.Logout(ctx); err != nil {
			log.Warn("logout", slog.Any("error", err))
		}
		return logoutDoneMsg{notice: notice}
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	ns, log := m.notifications, m.log
	return func() tea.Msg {
		count, err := ns.UnreadCount(context.Background())
		if err != nil {
			log.Warn("counting unread notifications", slog.Any("error", err))
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: count}
	}
}

// waitForToasts blocks until the toast set changes.
func (m Model) waitForToasts() tea.Cmd {
	changes := m.toasts.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return toastsChangedMsg{}
	}
}

// notifyMutation runs fn against the notification store and reports the
// outcome as a toast.
func (m Model) notifyMutation(fn func(context.Context) error, success string) tea.Cmd {
	toasts, log := m.toasts, m.log
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			log.Warn("updating notifications", slog.Any("error", err))
			toasts.AddToast(model.ToastDraft{
				Type:    model.ToastTypeError,
				Title:   "Notifications",
				Message: err.Error(),
			})
			return nil
		}
		toasts.AddToast(model.ToastDraft{Type: model.ToastTypeSuccess, Title: "Notifications", Message: success})
		return notifications.ChangedMsg{}
	}
}

// updateClaimStatus records a reviewer decision. Approvals carry the
// billed amount as the approved amount unless one was set.
func (m Model) updateClaimStatus(claim model.Claim, update model.ClaimStatusUpdate) tea.Cmd {
	api := m.claims
	if update.Status == model.ClaimStatusApproved && update.ApprovedAmount == "" {
		update.ApprovedAmount = strconv.FormatFloat(claim.Amount, 'f', 2, 64)
	}
	return func() tea.Msg {
		err := api.UpdateClaimStatus(context.Background(), claim.ClaimID, update)
		return actionResultMsg{claimID: claim.ClaimID, status: update.Status, err: err}
	}
}

func (m Model) loadPolicies() tea.Cmd {
	api := m.claims
	return func() tea.Msg {
		policies, err := api.GetInsurancePolicies(context.Background())
		return policiesLoadedMsg{policies: policies, err: err}
	}
}

func (m Model) evaluatePreAuth(claim model.Claim, policyNumber string) tea.Cmd {
	api := m.claims
	return func() tea.Msg {
		d, err := api.EvaluatePreAuth(context.Background(), claim, policyNumber)
		return evaluatedMsg{claimID: claim.ClaimID, decision: d, err: err}
	}
}

func (m Model) search(term string) tea.Cmd {
	api := m.claims
	return func() tea.Msg {
		page, err := api.SearchClaims(context.Background(), term, 1, searchPageSize)
		if err != nil {
			return searchResultMsg{term: term, err: err}
		}
		return searchResultMsg{term: term, claims: page.Results}
	}
}

// loginError maps an authentication failure to the text shown on the
// login form.
func loginError(err error) error {
	if payor.IsAuthError(err) {
		return errors.New("Invalid email or password")
	}
	if code := payor.StatusCode(err); code != 0 {
		return fmt.Errorf("Sign in failed (HTTP %d). Please try again.", code)
	}
	return errors.New("Unable to reach the claims service. Please try again.")
}
