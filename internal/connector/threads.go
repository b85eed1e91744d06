// Package connector adapts the Gmail API to the context sources and the mail
// creation capability used by the reply workflow.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

const (
	maxMessageRunes   = 2000
	maxCandidateRunes = 200
	candidateFetchers = 4
	sentLabel         = "SENT"
)

type threadSvc interface {
	ListThreads(ctx context.Context, Q string, maxResults int64) (*gmail.ListThreadsResponse, error)
	GetThread(ctx context.Context, threadID string) (*gmail.Thread, error)
}

type profileSvc interface {
	GetProfile(ctx context.Context) (*gmail.Profile, error)
}

// Account resolves and caches the address of the authorized mailbox.
type Account struct {
	svc profileSvc

	mu    sync.Mutex
	email string
}

// NewAccount creates an Account backed by the Gmail profile endpoint.
func NewAccount(svc profileSvc) *Account {
	return &Account{svc: svc}
}

// Email returns the lowercased mailbox address.
func (a *Account) Email(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.email != "" {
		return a.email, nil
	}

	profile, err := a.svc.GetProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("svc.GetProfile failed: %w", err)
	}
	a.email = strings.ToLower(profile.EmailAddress)

	return a.email, nil
}

// Threads fetches and searches Gmail threads.
type Threads struct {
	svc     threadSvc
	account *Account
}

// NewThreads creates a thread source. account may be nil, in which case
// message direction is taken from the SENT label only.
func NewThreads(svc threadSvc, account *Account) *Threads {
	return &Threads{svc: svc, account: account}
}

// FetchThread returns the thread as an ordered, read-only snapshot.
func (t *Threads) FetchThread(ctx context.Context, threadID string) (reply.ThreadContext, error) {
	thread, err := t.svc.GetThread(ctx, threadID)
	if err != nil {
		err = fmt.Errorf("svc.GetThread failed: %w", err)
		if isNotFound(err) {
			return reply.ThreadContext{}, &reply.NotFoundError{ThreadID: threadID, Err: err}
		}
		return reply.ThreadContext{}, err
	}

	return ThreadContext(thread, t.self(ctx)), nil
}

// SearchThreads lists at most max threads matching the Gmail query.
func (t *Threads) SearchThreads(ctx context.Context, query string, max int64) ([]reply.ThreadCandidate, error) {
	result, err := t.svc.ListThreads(ctx, query, max)
	if err != nil {
		return nil, fmt.Errorf("svc.ListThreads failed: %w", err)
	}

	threads := result.Threads
	if max > 0 && int64(len(threads)) > max {
		threads = threads[:max]
	}

	self := t.self(ctx)
	candidates := make([]reply.ThreadCandidate, len(threads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateFetchers)
	for i, th := range threads {
		g.Go(func() error {
			full, err := t.svc.GetThread(gctx, th.Id)
			if err != nil {
				return fmt.Errorf("get thread %s failed: %w", th.Id, err)
			}
			tc := ThreadContext(full, self)

			snippet := full.Snippet
			if n := len(tc.Messages); n > 0 {
				snippet = tc.Messages[n-1].Snippet
			}
			candidates[i] = reply.ThreadCandidate{
				ThreadID:     tc.ThreadID,
				Subject:      tc.Subject,
				Participants: tc.Participants(),
				Snippet:      truncate(snippet, maxCandidateRunes),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// isNotFound reports whether Gmail rejected the id as unknown. Gmail answers
// 400 for ids that are not even well formed.
func isNotFound(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusBadRequest
}

func (t *Threads) self(ctx context.Context) string {
	if t.account == nil {
		return ""
	}
	email, err := t.account.Email(ctx)
	if err != nil {
		return ""
	}
	return email
}

// ThreadContext converts a full-format Gmail thread. self is the mailbox
// address; messages not sent by it are inbound.
func ThreadContext(thread *gmail.Thread, self string) reply.ThreadContext {
	tc := reply.ThreadContext{ThreadID: thread.Id}

	for _, msg := range thread.Messages {
		m := messageSummary(msg, self)
		tc.Messages = append(tc.Messages, m)

		if tc.Subject == "" && msg.Payload != nil {
			tc.Subject = strings.TrimSpace(format.HeaderValue(msg.Payload.Headers, "Subject"))
		}
	}

	if last, ok := tc.LastInboundMessage(); ok {
		tc.LastInbound = reply.ThreadingIDs{MessageID: last.MessageID, References: last.References}
		tc.PrimaryRecipient = last.From
	} else if n := len(tc.Messages); n > 0 {
		last := tc.Messages[n-1]
		tc.LastInbound = reply.ThreadingIDs{MessageID: last.MessageID, References: last.References}
		if len(last.To) > 0 {
			tc.PrimaryRecipient = last.To[0]
		}
	}

	return tc
}

func messageSummary(msg *gmail.Message, self string) reply.MessageSummary {
	m := reply.MessageSummary{Snippet: msg.Snippet}
	if msg.InternalDate > 0 {
		m.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	if msg.Payload != nil {
		headers := msg.Payload.Headers
		m.From = format.ParseAddress(format.HeaderValue(headers, "From")).Email
		for _, name := range []string{"To", "Cc"} {
			for _, a := range format.ParseAddressList(format.HeaderValue(headers, name)) {
				m.To = append(m.To, a.Email)
			}
		}
		if ids := format.ParseMsgIDList(format.HeaderValue(headers, "Message-ID")); len(ids) > 0 {
			m.MessageID = ids[0]
		}
		m.References = format.ParseMsgIDList(format.HeaderValue(headers, "References"))

		if body := format.BodyText(msg.Payload); body != "" {
			m.Snippet = body
		}
	}
	m.Snippet = truncate(m.Snippet, maxMessageRunes)

	m.Inbound = !hasLabel(msg, sentLabel) && (self == "" || m.From != self)

	return m
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
