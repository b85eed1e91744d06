package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-reply-mcp/internal/auth"
)

type tokMock struct {
	AuthorizeCodeFunc func(ctx context.Context, code, state string) error
	OAuthTokenFunc    func() (*oauth2.Token, error)
	RedirectURLFunc   func() (string, error)
}

func (m *tokMock) AuthorizeCode(ctx context.Context, code, state string) error {
	return m.AuthorizeCodeFunc(ctx, code, state)
}

func (m *tokMock) OAuthToken() (*oauth2.Token, error) {
	return m.OAuthTokenFunc()
}

func (m *tokMock) RedirectURL() (string, error) {
	return m.RedirectURLFunc()
}

func TestHTTPHandler(t *testing.T) {
	expiry := time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name           string
		target         string
		tok            *tokMock
		opts           []auth.HandlerOption
		expectedStatus int
		expectedBody   string
		expectedLoc    string
	}{
		{
			name:   "redirect",
			target: "/oauth?redirect=1",
			tok: &tokMock{
				RedirectURLFunc: func() (string, error) { return "https://accounts.example.com/auth?state=s", nil },
			},
			expectedStatus: http.StatusFound,
			expectedLoc:    "https://accounts.example.com/auth?state=s",
		},
		{
			name:   "redirect_failure",
			target: "/oauth?redirect=1",
			tok: &tokMock{
				RedirectURLFunc: func() (string, error) { return "", errors.New("no entropy") },
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:   "code_accepted",
			target: "/oauth?code=c&state=s",
			tok: &tokMock{
				AuthorizeCodeFunc: func(_ context.Context, code, state string) error {
					if code != "c" || state != "s" {
						return errors.New("unexpected")
					}
					return nil
				},
			},
			expectedStatus: http.StatusFound,
			expectedLoc:    "/oauth",
		},
		{
			name:   "code_rejected",
			target: "/oauth?code=c&state=bad",
			tok: &tokMock{
				AuthorizeCodeFunc: func(context.Context, string, string) error { return auth.ErrInvalidState },
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Unable to authorize provided code",
		},
		{
			name:   "no_token",
			target: "/oauth",
			tok: &tokMock{
				OAuthTokenFunc: func() (*oauth2.Token, error) { return nil, auth.ErrTokenNotSet },
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Gmail is not connected",
		},
		{
			name:   "token_masked",
			target: "/oauth",
			tok: &tokMock{
				OAuthTokenFunc: func() (*oauth2.Token, error) {
					return &oauth2.Token{AccessToken: "secret-abcd", Expiry: expiry}, nil
				},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "Token: XXXXXXXabcd, expires: 2025-09-14T12:00:00Z\n",
		},
		{
			name:   "pending_drafts",
			target: "/oauth",
			tok: &tokMock{
				OAuthTokenFunc: func() (*oauth2.Token, error) {
					return &oauth2.Token{AccessToken: "ab", Expiry: expiry}, nil
				},
			},
			opts:           []auth.HandlerOption{auth.WithPendingDrafts(func() int { return 3 })},
			expectedStatus: http.StatusOK,
			expectedBody:   "Token: ab, expires: 2025-09-14T12:00:00Z\nDrafts awaiting confirmation: 3\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			auth.NewHTTPHandler(tc.tok, tc.opts...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedLoc != "" {
				assert.Equal(t, tc.expectedLoc, rec.Header().Get("Location"))
			}
			if tc.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tc.expectedBody)
			}
		})
	}
}
