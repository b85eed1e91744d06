package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type tok interface {
	AuthorizeCode(context.Context, string, string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
}

// HandlerOption configures an HTTPHandler.
type HandlerOption func(*HTTPHandler)

// WithPendingDrafts adds the number of drafts awaiting confirmation to the
// status page.
func WithPendingDrafts(count func() int) HandlerOption {
	return func(h *HTTPHandler) {
		h.pending = count
	}
}

// HTTPHandler serves the OAuth2 consent round trip and a connection status page.
//
//	?redirect=1          starts consent, redirecting to Google
//	?code=...&state=...  completes consent
//	(none)               reports the current token
type HTTPHandler struct {
	tok     tok
	pending func() int
}

func NewHTTPHandler(tok tok, opts ...HandlerOption) *HTTPHandler {
	h := &HTTPHandler{tok: tok}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("redirect") != "":
		h.startConsent(w, r)
	case q.Get("code") != "":
		h.completeConsent(w, r, q.Get("code"), q.Get("state"))
	default:
		h.status(w)
	}
}

func (h *HTTPHandler) startConsent(w http.ResponseWriter, r *http.Request) {
	target, err := h.tok.RedirectURL()
	if err != nil {
		log.Println(fmt.Errorf("oauth: tok.RedirectURL failed: %w", err))
		http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *HTTPHandler) completeConsent(w http.ResponseWriter, r *http.Request, code, state string) {
	if err := h.tok.AuthorizeCode(r.Context(), code, state); err != nil {
		log.Println(fmt.Errorf("oauth: tok.AuthorizeCode failed: %w", err))
		http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
		return
	}

	log.Println("oauth: Gmail access granted")
	// drop code and state from the address bar
	http.Redirect(w, r, r.URL.EscapedPath(), http.StatusFound)
}

func (h *HTTPHandler) status(w http.ResponseWriter) {
	t, err := h.tok.OAuthToken()
	switch {
	case errors.Is(err, ErrTokenNotSet):
		http.Error(w, "Gmail is not connected, open this page with ?redirect=1", http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s, expires: %s\n", maskLeft(t.AccessToken, 4), t.Expiry.Format(time.RFC3339))
	if h.pending != nil {
		fmt.Fprintf(&b, "Drafts awaiting confirmation: %d\n", h.pending())
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// maskLeft replaces all but the last keep runes of s with X.
func maskLeft(s string, keep int) string {
	rs := []rune(s)
	for i := range len(rs) - keep {
		rs[i] = 'X'
	}

	return string(rs)
}
