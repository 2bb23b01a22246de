package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/claims-portal/internal/app"
	"github.com/nhle/claims-portal/internal/model"
	appsync "github.com/nhle/claims-portal/internal/sync"
)

// errNotSignedIn is returned by commands that need a stored session.
var errNotSignedIn = errors.New("not signed in; run `claimsportal login` first")

func runDashboard(ctx context.Context) error {
	rt, err := newServices(true, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	m := app.New(app.Deps{
		Auth:          rt.auth(),
		Claims:        rt.client,
		Sync:          rt.sync,
		Notifications: rt.store,
		Toasts:        rt.toasts,
		Log:           rt.log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func newLoginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the claims service and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(false, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			var password string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				),
			)
			if err := form.RunWithContext(cmd.Context()); err != nil {
				return err
			}

			p, err := rt.auth().Login(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", p.Email, p.PayorID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "payor email address")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(false, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.auth().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll claims without the dashboard and log each notification",
		Long: `Runs the claim sync in the foreground and logs every notification it
derives (new claims and status changes) until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(false, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			principal := rt.session.Principal()
			if principal == nil {
				return errNotSignedIn
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt.log.Info("watching claims",
				slog.String("payor_id", principal.PayorID),
				slog.Duration("poll_interval", rt.cfg.Sync.PollInterval()),
			)
			rt.sync.Start(ctx, principal)
			return watchLoop(ctx, rt.sync, rt.log)
		},
	}
}

// watchLoop logs each cycle's outcome until ctx is done or the session
// expires.
func watchLoop(ctx context.Context, rs *appsync.RealtimeSync, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rs.Updates():
		}

		snap := rs.Snapshot()
		switch {
		case snap.AuthExpired:
			return errNotSignedIn
		case snap.Err != nil:
			log.Warn(snap.Err.Error(), slog.Any("cause", errors.Unwrap(snap.Err)))
		default:
			log.Debug("claims synced",
				slog.Int("claims", len(snap.Claims)),
				slog.Time("last_fetch", snap.LastFetch),
			)
		}
	}
}

func newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file %s already exists", configPath)
			}
			if err := model.SaveConfig(configPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
		},
	})
	return cfg
}
