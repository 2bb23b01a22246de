package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
	appsync "github.com/nhle/claims-portal/internal/sync"
	"github.com/nhle/claims-portal/internal/testutil"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"login", "logout", "watch", "config"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppConfig().Sync, cfg.Sync)

	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", path, "config", "init"})
	assert.ErrorContains(t, root.Execute(), "already exists")
}

func TestLoggingSinkStoresAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	s := testutil.NewTestStore(t)
	sink := loggingSink{next: s, log: log}

	n, err := sink.AddNotification(context.Background(), model.NotificationDraft{
		Type:    model.NotificationTypeApproval,
		Title:   "Claim Approved",
		Message: "Claim CLM-1 status changed to approved",
		Data:    &model.NotificationData{ClaimID: "CLM-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	assert.Contains(t, buf.String(), "Claim Approved")
	assert.Contains(t, buf.String(), "claim_id=CLM-1")

	count, err := s.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type expiredAPI struct{}

func (expiredAPI) GetClaims(context.Context, payor.ClaimsQuery) (*payor.ClaimsPage, error) {
	return nil, &payor.AuthError{Message: "token expired"}
}

func (expiredAPI) GetAnalytics(context.Context) (*model.Analytics, error) {
	return &model.Analytics{}, nil
}

func (expiredAPI) GetClaimsSummary(context.Context) (*model.ClaimsSummary, error) {
	return &model.ClaimsSummary{}, nil
}

type idleScheduler struct{}

type noopHandle struct{}

func (noopHandle) Stop() {}

func (idleScheduler) Every(time.Duration, func()) appsync.Handle { return noopHandle{} }

func TestWatchLoopStopsOnExpiredSession(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rs := appsync.NewRealtimeSync(expiredAPI{}, testutil.NewTestStore(t), nil, idleScheduler{}, appsync.WithLogger(log))
	rs.Start(context.Background(), &model.Payor{PayorID: "P-1"})
	defer rs.Stop()

	assert.ErrorIs(t, watchLoop(context.Background(), rs, log), errNotSignedIn)
}

func TestWatchLoopReturnsOnCancel(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rs := appsync.NewRealtimeSync(expiredAPI{}, testutil.NewTestStore(t), nil, idleScheduler{}, appsync.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, watchLoop(ctx, rs, log))
}
