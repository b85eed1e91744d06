// Package confirm implements the two-step reply workflow: prepare stages a
// generated draft under a one-time token, confirm turns it into a real mail
// draft, cancel discards it.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hal9000y/gmail-reply-mcp/internal/draftparse"
	"github.com/hal9000y/gmail-reply-mcp/internal/gather"
	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
	"github.com/hal9000y/gmail-reply-mcp/internal/staging"
)

// DefaultMaxAttempts is how many times a staged draft may be handed to the
// mail creator before it is discarded.
const DefaultMaxAttempts = 2

type gatherer interface {
	Gather(ctx context.Context, req gather.Request) (gather.Gathered, []reply.Warning, error)
}

type generator interface {
	Generate(ctx context.Context, compiled, instructions string) (string, error)
}

type mailCreator interface {
	CreateMailDraft(ctx context.Context, d reply.OutgoingDraft) (string, error)
}

// PrepareRequest is one "draft a reply" request.
type PrepareRequest struct {
	Instructions  string
	ThreadHint    string
	TalkingPoints string
	// Replaces is a previous token to discard once the new draft is staged.
	Replaces string
}

// PrepareResult is a staged draft ready for review.
type PrepareResult struct {
	Token     string
	Preview   string
	Warnings  []reply.Warning
	Draft     reply.DraftRecord
	ExpiresAt time.Time
}

// ConfirmResult is the outcome of a successful confirm or cancel.
type ConfirmResult struct {
	State   reply.State
	DraftID string
	Draft   reply.Draft
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithMaxAttempts sets how many mail creation attempts one token gets.
func WithMaxAttempts(n int) Option {
	return func(p *Protocol) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithCustomInstructions appends deployment specific guidance to every
// generation prompt.
func WithCustomInstructions(s string) Option {
	return func(p *Protocol) { p.customInstructions = s }
}

// Protocol ties gathering, generation, staging and mail creation together.
type Protocol struct {
	gatherer  gatherer
	generator generator
	store     staging.Store[reply.Draft]
	creator   mailCreator

	maxAttempts        int
	customInstructions string
}

func NewProtocol(g gatherer, gen generator, store staging.Store[reply.Draft], creator mailCreator, opts ...Option) *Protocol {
	p := &Protocol{
		gatherer:    g,
		generator:   gen,
		store:       store,
		creator:     creator,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare gathers context, generates and parses a reply and stages it. Nothing
// is staged when gathering or generation fails.
func (p *Protocol) Prepare(ctx context.Context, req PrepareRequest) (PrepareResult, error) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "confirm.Prepare")
	defer span.End()

	fail := func(status string, err error) (PrepareResult, error) {
		observability.RecordPrepare(status, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("prepare: %s: %v", status, err)
		return PrepareResult{}, err
	}

	greq := gather.Request{
		Instructions:  req.Instructions,
		ThreadHint:    req.ThreadHint,
		TalkingPoints: req.TalkingPoints,
	}
	gathered, warnings, err := p.gatherer.Gather(ctx, greq)
	if err != nil {
		return fail("gather_failed", err)
	}

	compiled := gather.Compile(gathered, greq, p.customInstructions)
	raw, err := p.generator.Generate(ctx, compiled, req.Instructions)
	if err != nil {
		return fail("generation_failed", &reply.GenerationError{Err: err})
	}

	parsed := draftparse.Parse(raw, gathered.Thread)
	for _, d := range parsed.Degradations {
		warnings = append(warnings, reply.ParseDegradedWarning(d))
	}

	entry, err := p.store.Stage(reply.Draft{
		ThreadID:       gathered.Thread.ThreadID,
		To:             parsed.To,
		Subject:        parsed.Subject,
		Body:           parsed.Body,
		Headers:        parsed.Headers,
		ContextSummary: gather.Summarize(gathered),
		Confidence:     parsed.Confidence,
	})
	if err != nil {
		return fail("stage_failed", fmt.Errorf("store.Stage failed: %w", err))
	}

	if req.Replaces != "" && req.Replaces != entry.Token {
		if p.store.Remove(req.Replaces) {
			log.Printf("prepare: discarded replaced draft %s", ShortToken(req.Replaces))
		}
	}

	record := reply.DraftRecord{
		Token:     entry.Token,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
		Draft:     entry.Value,
	}

	observability.RecordPrepare("staged", time.Since(start))
	span.SetAttributes(
		attribute.String("thread.id", record.ThreadID),
		attribute.String("confidence", string(record.Confidence)),
		attribute.Int("warnings", len(warnings)),
	)
	log.Printf("prepare: staged %s for thread %s (%s confidence, %d warnings)",
		ShortToken(record.Token), record.ThreadID, record.Confidence, len(warnings))

	return PrepareResult{
		Token:     record.Token,
		Preview:   Preview(record, gathered.Thread.Subject, warnings),
		Warnings:  warnings,
		Draft:     record,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Confirm creates the mail draft staged under token. A non-empty editedBody
// replaces the staged body. The entry is taken from the store in one step, so
// of two concurrent confirms on one token at most one reaches the mail
// creator, and a retry always sees the attempt count of the last failure.
func (p *Protocol) Confirm(ctx context.Context, token, editedBody string) (ConfirmResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "confirm.Confirm")
	defer span.End()

	entry, err := p.store.Take(token)
	if err != nil {
		return ConfirmResult{}, p.stale(token, err)
	}

	draft := entry.Value
	out := reply.OutgoingDraft{
		ThreadID: draft.ThreadID,
		To:       draft.To,
		Subject:  draft.Subject,
		Body:     draft.Body,
		Headers:  draft.Headers,
	}
	if strings.TrimSpace(editedBody) != "" {
		out.Body = editedBody
	}

	draftID, err := p.creator.CreateMailDraft(ctx, out)
	if err != nil {
		observability.RecordConfirm(string(reply.CodeMailCreationFailed))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		retryable := false
		if draft.Attempts+1 < p.maxAttempts {
			entry.Value.Attempts++
			retryable = p.store.Restore(entry)
		}
		log.Printf("confirm: mail draft for %s failed (retryable=%t): %v", ShortToken(token), retryable, err)

		return ConfirmResult{}, &reply.DownstreamCreationError{Token: token, Retryable: retryable, Err: err}
	}

	observability.RecordConfirm("confirmed")
	span.SetAttributes(attribute.String("thread.id", out.ThreadID), attribute.String("draft.id", draftID))
	log.Printf("confirm: created mail draft %s in thread %s", draftID, out.ThreadID)

	draft.Body = out.Body
	return ConfirmResult{State: reply.StateConfirmed, DraftID: draftID, Draft: draft}, nil
}

// Cancel discards the draft staged under token.
func (p *Protocol) Cancel(token string) (ConfirmResult, error) {
	entry, err := p.store.Take(token)
	if err != nil {
		return ConfirmResult{}, p.stale(token, err)
	}

	observability.RecordConfirm("cancelled")
	log.Printf("cancel: discarded %s", ShortToken(token))

	return ConfirmResult{State: reply.StateCancelled, Draft: entry.Value}, nil
}

func (p *Protocol) stale(token string, err error) error {
	code := reply.CodeNotFound
	if errors.Is(err, staging.ErrExpired) {
		code = reply.CodeExpired
	}
	observability.RecordConfirm(string(code))
	return &reply.StaleTokenError{Token: token, Code: code}
}

// ShortToken returns a log-safe prefix of token.
func ShortToken(token string) string {
	const keep = 12
	if len(token) <= keep {
		return token
	}
	return token[:keep] + "..."
}
