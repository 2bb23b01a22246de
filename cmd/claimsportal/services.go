package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nhle/claims-portal/internal/app"
	"github.com/nhle/claims-portal/internal/credential"
	"github.com/nhle/claims-portal/internal/logger"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/notify"
	"github.com/nhle/claims-portal/internal/payor"
	"github.com/nhle/claims-portal/internal/session"
	"github.com/nhle/claims-portal/internal/store"
	appsync "github.com/nhle/claims-portal/internal/sync"
	"github.com/nhle/claims-portal/internal/toast"
)

// services holds the wired services for one process.
type services struct {
	cfg     *model.AppConfig
	log     *slog.Logger
	session *session.Session
	client  *payor.Client
	store   *store.SQLiteStore
	toasts  *toast.Store
	janitor *notify.Janitor
	sync    *appsync.RealtimeSync

	logCloser io.Closer
}

// loadConfig reads the config file named by --config.
func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newServices wires every service. When toFile is set the logger writes to
// the configured log file so it does not corrupt the terminal UI. With
// logNotifications every derived notification is also logged.
func newServices(toFile, logNotifications bool) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rt := &services{cfg: cfg}
	if toFile {
		rt.log, rt.logCloser, err = logger.InitializeFile(cfg.Log.File, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
	} else {
		rt.log = logger.Initialize(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	}

	rt.session = session.NewSession(credential.NewKeyringStore(model.ConfigDir()))
	rt.client = payor.NewClient(cfg.API.BaseURL, rt.session,
		payor.WithTimeout(cfg.API.Timeout()),
		payor.WithMaxRetries(cfg.API.MaxRetries),
	)

	rt.store, err = store.NewSQLiteStore(cfg.Notifications.DBPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("opening notification store: %w", err)
	}

	rt.janitor = notify.NewJanitor(rt.store, cfg.Notifications.MaxAge(), cfg.Notifications.EvictionSchedule, rt.log)
	if err := rt.janitor.Start(); err != nil {
		rt.Close()
		return nil, err
	}

	rt.toasts = toast.New(toast.WithDefaultDuration(time.Duration(cfg.Toasts.DefaultDurationMs) * time.Millisecond))

	var notifications appsync.NotificationSink = rt.store
	if logNotifications {
		notifications = loggingSink{next: rt.store, log: rt.log}
	}
	rt.sync = appsync.NewRealtimeSync(rt.client, notifications, rt.toasts, nil,
		appsync.WithLogger(rt.log),
		appsync.WithIntervals(cfg.Sync.PollInterval(), cfg.Sync.CriticalInterval()),
		appsync.WithPageSizes(cfg.Sync.PageSize, cfg.Sync.CriticalPageSize),
	)
	return rt, nil
}

func (rt *services) auth() app.SessionAuth {
	return app.SessionAuth{Session: rt.session, Client: rt.client}
}

// Close stops background work and releases resources. It is safe to call
// on a partially built runtime.
func (rt *services) Close() {
	if rt.sync != nil {
		rt.sync.Stop()
	}
	if rt.janitor != nil {
		rt.janitor.Stop()
	}
	if rt.toasts != nil {
		rt.toasts.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.log.Warn("closing notification store", slog.Any("error", err))
		}
	}
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
	}
}

// loggingSink logs every notification before storing it.
type loggingSink struct {
	next appsync.NotificationSink
	log  *slog.Logger
}

func (s loggingSink) AddNotification(ctx context.Context, draft model.NotificationDraft) (model.Notification, error) {
	n, err := s.next.AddNotification(ctx, draft)
	if err != nil {
		return n, err
	}
	attrs := []any{
		slog.String("type", string(n.Type)),
		slog.String("message", n.Message),
	}
	if id := n.ClaimID(); id != "" {
		attrs = append(attrs, slog.String("claim_id", id))
	}
	s.log.Info(n.Title, attrs...)
	return n, nil
}
