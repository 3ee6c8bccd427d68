package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/models"
)

// TokenStore persists the opaque token record. Load returns (nil, nil)
// when nothing has been saved.
type TokenStore interface {
	Load() (models.TokenRecord, error)
	Save(rec models.TokenRecord) error
	Delete() error
}

// Refresher exchanges a refresh token for a fresh token record.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (models.TokenRecord, error)
}

// TokenProvider owns the in-memory token record. The record is loaded from
// the store on first access and afterwards only changes through SaveToken,
// Refresh and DeleteToken.
type TokenProvider struct {
	store     TokenStore
	refresher Refresher
	logger    *slog.Logger

	mu     sync.Mutex
	loaded bool
	rec    models.TokenRecord
}

// NewTokenProvider creates a provider over store. refresher may be nil
// when Refresh is never called.
func NewTokenProvider(store TokenStore, refresher Refresher, logger *slog.Logger) *TokenProvider {
	return &TokenProvider{store: store, refresher: refresher, logger: logger}
}

// record returns the memoized record, loading it on first use. Callers
// must hold p.mu.
func (p *TokenProvider) record() models.TokenRecord {
	if p.loaded {
		return p.rec
	}

	rec, err := p.store.Load()
	if err != nil {
		p.logger.Warn("could not load token", slog.String("error", err.Error()))
		return nil
	}

	p.rec = rec
	p.loaded = true

	return p.rec
}

// AccessToken returns the current access token, or "" when this device was
// never authenticated.
func (p *TokenProvider) AccessToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.record().AccessToken()
}

// RefreshToken returns the current refresh token, or "".
func (p *TokenProvider) RefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.record().RefreshToken()
}

// Token returns a copy of the current record, or nil.
func (p *TokenProvider) Token() models.TokenRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.record().Clone()
}

// Refresh obtains a new access token with the stored refresh token. The
// access token and any rotated identifiers are replaced in place; the
// refresh token and every other field are kept. The whole record is then
// persisted.
func (p *TokenProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.record()
	if current == nil || current.RefreshToken() == "" || p.refresher == nil {
		return fmt.Errorf("refreshing token: %w", builderr.ErrCannotBuildRequest)
	}

	fresh, err := p.refresher.RefreshAccessToken(ctx, current.RefreshToken())
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	if fresh.AccessToken() == "" {
		return &builderr.ResponseError{Field: "access_token", Reason: "is missing or not a string"}
	}

	next := current.Clone()
	next["access_token"] = fresh.AccessToken()

	for _, key := range []string{"token_id", "id_token"} {
		if v, ok := fresh[key].(string); ok && v != "" {
			next[key] = v
		}
	}

	if err := p.store.Save(next); err != nil {
		return fmt.Errorf("saving refreshed token: %w", err)
	}

	p.rec = next
	p.logger.Debug("access token refreshed")

	return nil
}

// SaveToken replaces both the memoized and the persisted record.
func (p *TokenProvider) SaveToken(rec models.TokenRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Save(rec); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	p.rec = rec.Clone()
	p.loaded = true

	return nil
}

// DeleteToken clears both the memoized and the persisted record.
func (p *TokenProvider) DeleteToken() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Delete(); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}

	p.rec = nil
	p.loaded = true

	return nil
}
