// Package auth handles OAuth2 token management and persistence.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-reply-mcp/internal/staging"
)

// StateTTL bounds the time between redirecting the user and the callback.
const StateTTL = 5 * time.Minute

// ErrTokenNotSet indicates no OAuth token is available.
var ErrTokenNotSet = errors.New("no token defined")

// ErrInvalidState is returned for unknown, reused or expired state parameters.
var ErrInvalidState = errors.New("invalid or expired state parameter")

// Token manages OAuth2 tokens with thread-safe operations.
type Token struct {
	mu          sync.RWMutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	persistPath string
	states      *staging.Memory[struct{}]
}

// NewToken creates a Token manager, loading from disk if path provided.
// opts configure the store of pending OAuth state parameters.
func NewToken(cfg *oauth2.Config, persistPath string, opts ...staging.Option) (*Token, error) {
	opts = append([]staging.Option{staging.WithTokenSource(generateState)}, opts...)
	t := &Token{
		cfg:         cfg,
		persistPath: persistPath,
		states:      staging.NewMemory[struct{}]("oauth_state", StateTTL, opts...),
	}
	if persistPath == "" {
		return t, nil
	}

	f, err := os.Open(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("File %s doesn't exist, but will be created at the end", persistPath)

			return t, nil
		}

		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("json.NewDecoder.Decode failed: %w", err)
	}
	t.token = token

	return t, nil
}

// RedirectURL generates the OAuth2 authorization URL with a secure random state.
func (t *Token) RedirectURL() (string, error) {
	e, err := t.states.Stage(struct{}{})
	if err != nil {
		return "", fmt.Errorf("states.Stage failed: %w", err)
	}

	return t.cfg.AuthCodeURL(e.Token, oauth2.AccessTypeOffline), nil
}

// StartStateSweep periodically drops states whose callback never arrived.
func (t *Token) StartStateSweep(interval time.Duration) (func(), error) {
	return t.states.StartSweep(interval)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthorizeCode exchanges an authorization code for an access token after
// validating state. Each state is accepted at most once.
func (t *Token) AuthorizeCode(ctx context.Context, code string, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	if _, err := t.states.Take(state); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	t.mu.Lock()
	t.token = tok
	t.mu.Unlock()

	return nil
}

// OAuthToken returns the current OAuth2 token.
func (t *Token) OAuthToken() (*oauth2.Token, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == nil {
		return nil, ErrTokenNotSet
	}

	return t.token, nil
}

// Transport returns an HTTP transport authorized with the current token.
// Refreshed tokens are kept so that Persist writes the latest one.
func (t *Token) Transport(ctx context.Context) (http.RoundTripper, error) {
	tok, err := t.OAuthToken()
	if err != nil {
		return nil, err
	}

	src := oauth2.ReuseTokenSource(tok, &savingSource{t: t, src: t.cfg.TokenSource(ctx, tok)})
	return &oauth2.Transport{Source: src}, nil
}

type savingSource struct {
	t   *Token
	src oauth2.TokenSource
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.t.mu.Lock()
	s.t.token = tok
	s.t.mu.Unlock()

	return tok, nil
}

// Persist saves the token to disk.
func (t *Token) Persist() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.persistPath == "" || t.token == nil {
		return nil
	}

	f, err := os.OpenFile(t.persistPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("os.OpenFile failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(t.token); err != nil {
		return fmt.Errorf("json.NewEncoder.Encode failed: %w", err)
	}

	return nil
}
