// Package session keeps the signed-in payor's tokens and profile.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/claims-portal/internal/credential"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
)

// Credential keys used in the credential store.
const (
	keyAccessToken  = "payor_access_token"
	keyRefreshToken = "payor_refresh_token"
	keyUserData     = "payor_user_data"
)

// Session holds the authenticated payor's tokens and profile, backed by a
// credential store so it survives restarts. It is safe for concurrent use
// and implements payor.TokenSource.
type Session struct {
	store credential.Store
	now   func() time.Time

	mu          sync.RWMutex
	loaded      bool
	accessToken string
	payor       *model.Payor
}

// NewSession creates a session backed by store.
func NewSession(store credential.Store) *Session {
	return &Session{store: store, now: time.Now}
}

// load reads stored tokens once. A missing entry is not an error.
func (s *Session) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	s.loaded = true

	if token, err := s.store.Get(keyAccessToken); err == nil {
		s.accessToken = token
	}
	if raw, err := s.store.Get(keyUserData); err == nil {
		var p model.Payor
		if json.Unmarshal([]byte(raw), &p) == nil {
			s.payor = &p
		}
	}
}

// AccessToken returns the current bearer token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.load()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Principal returns the authenticated payor, or nil when there is no
// stored profile, no access token, or the token's exp claim has passed.
// The token signature is not verified here; the backend does that.
func (s *Session) Principal() *model.Payor {
	s.load()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessToken == "" || s.payor == nil || s.payor.PayorID == "" {
		return nil
	}
	if expired(s.accessToken, s.now()) {
		return nil
	}
	p := *s.payor
	return &p
}

// expired reports whether token carries an exp claim before now.
// Tokens that cannot be parsed as JWTs are treated as opaque and unexpired.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// Login authenticates against the backend and stores the returned tokens
// and profile.
func (s *Session) Login(ctx context.Context, c *payor.Client, email, password string) (*model.Payor, error) {
	resp, err := c.AuthenticatePayor(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p := resp.Payor()
	userData, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payor profile: %w", err)
	}

	if err := s.store.Set(keyAccessToken, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("storing access token: %w", err)
	}
	if resp.RefreshToken != "" {
		if err := s.store.Set(keyRefreshToken, resp.RefreshToken); err != nil {
			return nil, fmt.Errorf("storing refresh token: %w", err)
		}
	}
	if err := s.store.Set(keyUserData, string(userData)); err != nil {
		return nil, fmt.Errorf("storing payor profile: %w", err)
	}

	s.mu.Lock()
	s.loaded = true
	s.accessToken = resp.AccessToken
	s.payor = &p
	s.mu.Unlock()

	return &p, nil
}

// Logout clears all stored authentication data. Failures of the backend
// logout call are ignored; local state is always cleared.
func (s *Session) Logout(ctx context.Context, c *payor.Client) error {
	if c != nil && s.AccessToken() != "" {
		_ = c.Logout(ctx)
	}

	s.mu.Lock()
	s.loaded = true
	s.accessToken = ""
	s.payor = nil
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUserData} {
		if err := s.store.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
