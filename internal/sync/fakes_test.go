package sync

import (
	"context"
	"io"
	"log/slog"
	gosync "sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func claim(id string, status model.ClaimStatus) model.Claim {
	return model.Claim{
		ClaimID:  id,
		Patient:  &model.Patient{Name: "Patient " + id},
		Amount:   1500,
		Status:   status,
		Priority: model.ClaimPriorityMedium,
	}
}

// fakeAPI serves configurable responses and counts requests.
type fakeAPI struct {
	mu gosync.Mutex

	claims       []model.Claim
	claimsErr    error
	critical     []model.Claim
	criticalErr  error
	analytics    *model.Analytics
	analyticsErr error
	summary      *model.ClaimsSummary
	summaryErr   error
	panicOn      string

	fullClaimCalls     int
	criticalClaimCalls int
	analyticsCalls     int
	summaryCalls       int
}

func (f *fakeAPI) setClaims(claims []model.Claim, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims, f.claimsErr = claims, err
}

func (f *fakeAPI) setCritical(claims []model.Claim, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.critical, f.criticalErr = claims, err
}

func (f *fakeAPI) setAnalytics(a *model.Analytics, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analytics, f.analyticsErr = a, err
}

func (f *fakeAPI) setSummary(s *model.ClaimsSummary, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary, f.summaryErr = s, err
}

func (f *fakeAPI) counts() (full, critical, analytics, summary int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullClaimCalls, f.criticalClaimCalls, f.analyticsCalls, f.summaryCalls
}

func (f *fakeAPI) GetClaims(_ context.Context, q payor.ClaimsQuery) (*payor.ClaimsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "claims" {
		panic("claims exploded")
	}
	if q.Limit == defaultCriticalPageSize {
		f.criticalClaimCalls++
		if f.criticalErr != nil {
			return nil, f.criticalErr
		}
		return &payor.ClaimsPage{Results: f.critical}, nil
	}
	f.fullClaimCalls++
	if f.claimsErr != nil {
		return nil, f.claimsErr
	}
	return &payor.ClaimsPage{Results: f.claims}, nil
}

func (f *fakeAPI) GetAnalytics(context.Context) (*model.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyticsCalls++
	return f.analytics, f.analyticsErr
}

func (f *fakeAPI) GetClaimsSummary(context.Context) (*model.ClaimsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	return f.summary, f.summaryErr
}

// recordingSink collects notification drafts.
type recordingSink struct {
	mu     gosync.Mutex
	drafts []model.NotificationDraft
	err    error
}

func (r *recordingSink) AddNotification(_ context.Context, d model.NotificationDraft) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.Notification{}, r.err
	}
	r.drafts = append(r.drafts, d)
	return model.Notification{ID: d.Title, Type: d.Type, Title: d.Title, Message: d.Message, Data: d.Data}, nil
}

func (r *recordingSink) all() []model.NotificationDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NotificationDraft, len(r.drafts))
	copy(out, r.drafts)
	return out
}

// recordingToasts collects toast drafts.
type recordingToasts struct {
	mu     gosync.Mutex
	drafts []model.ToastDraft
}

func (r *recordingToasts) AddToast(d model.ToastDraft) model.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, d)
	return model.Toast{ID: d.Title, Type: d.Type, Title: d.Title, Message: d.Message}
}

func (r *recordingToasts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

// manualScheduler fires registered tasks only when the test advances time.
type manualScheduler struct {
	mu    gosync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	interval time.Duration
	fn       func()
	elapsed  time.Duration
	stopped  bool
	sched    *manualScheduler
}

func (m *manualScheduler) Every(interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{interval: interval, fn: fn, sched: m}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *manualTask) Stop() {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	t.stopped = true
}

func (m *manualScheduler) intervals() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Duration
	for _, t := range m.tasks {
		out = append(out, t.interval)
	}
	return out
}

// Advance moves time forward by d and runs every live task once per
// interval boundary crossed.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	type due struct {
		task *manualTask
		n    int
	}
	var runs []due
	for _, t := range m.tasks {
		if t.stopped {
			continue
		}
		t.elapsed += d
		n := int(t.elapsed / t.interval)
		t.elapsed %= t.interval
		if n > 0 {
			runs = append(runs, due{task: t, n: n})
		}
	}
	m.mu.Unlock()

	for _, r := range runs {
		for i := 0; i < r.n; i++ {
			m.mu.Lock()
			stopped := r.task.stopped
			m.mu.Unlock()
			if stopped {
				break
			}
			r.task.fn()
		}
	}
}
