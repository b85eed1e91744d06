package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reply-mcp/internal/confirm"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

type replyProtocol interface {
	Prepare(ctx context.Context, req confirm.PrepareRequest) (confirm.PrepareResult, error)
	Confirm(ctx context.Context, token, editedBody string) (confirm.ConfirmResult, error)
	Cancel(token string) (confirm.ConfirmResult, error)
}

var errConfirmationIDRequired = errors.New("confirmation_id is required")

type PrepareEmailReplyRequest struct {
	Instructions  string `json:"instructions" jsonschema:"what to reply and to whom, e.g. 'reply to john@acme.com about pricing'"`
	ThreadID      string `json:"thread_id,omitempty" jsonschema:"Gmail thread ID to reply in; searched from the instructions when empty"`
	TalkingPoints string `json:"talking_points,omitempty" jsonschema:"points the reply must cover"`
	Replaces      string `json:"replaces_confirmation_id,omitempty" jsonschema:"confirmation ID of an earlier preview this one supersedes"`
}

type Warning struct {
	Kind    string `json:"kind" jsonschema:"partial_source or parse_degraded"`
	Source  string `json:"source,omitempty" jsonschema:"context source that had nothing to offer"`
	Message string `json:"message" jsonschema:"details"`
}

type PrepareEmailReplyResponse struct {
	ConfirmationID string    `json:"confirmation_id" jsonschema:"pass to confirm_email_reply or cancel_email_reply"`
	Preview        string    `json:"preview" jsonschema:"formatted draft preview to show the user"`
	ThreadID       string    `json:"thread_id" jsonschema:"thread the reply belongs to"`
	To             []string  `json:"to" jsonschema:"recipients"`
	Subject        string    `json:"subject" jsonschema:"reply subject"`
	Body           string    `json:"body" jsonschema:"draft body"`
	Confidence     string    `json:"confidence" jsonschema:"high, or low when the generated text had to be guessed at"`
	ContextSummary string    `json:"context_summary,omitempty" jsonschema:"what the draft was based on"`
	Warnings       []Warning `json:"warnings" jsonschema:"non-fatal problems"`
	ExpiresAt      string    `json:"expires_at" jsonschema:"RFC 3339 time after which the confirmation ID is void"`

	Error      string            `json:"error,omitempty" jsonschema:"ambiguous_target, thread_not_found or generation_failed; nothing was staged"`
	Message    string            `json:"message,omitempty" jsonschema:"what went wrong"`
	Candidates []ThreadCandidate `json:"candidates,omitempty" jsonschema:"equally good threads; retry with one of their thread_id values"`
}

// ThreadCandidate is one of several threads the instructions matched.
type ThreadCandidate struct {
	ThreadID     string   `json:"thread_id" jsonschema:"Gmail thread ID"`
	Subject      string   `json:"subject" jsonschema:"thread subject"`
	Participants []string `json:"participants" jsonschema:"addresses taking part in the thread"`
	Snippet      string   `json:"snippet,omitempty" jsonschema:"latest message preview"`
}

type ConfirmEmailReplyRequest struct {
	ConfirmationID string `json:"confirmation_id" jsonschema:"the confirmation ID from prepare_email_reply"`
	EditedBody     string `json:"edited_body,omitempty" jsonschema:"replacement body, when the user edited the draft"`
}

type ConfirmEmailReplyResponse struct {
	Success   bool   `json:"success" jsonschema:"true when the Gmail draft was created"`
	State     string `json:"state,omitempty" jsonschema:"CONFIRMED on success"`
	DraftID   string `json:"draft_id,omitempty" jsonschema:"Gmail draft ID"`
	ThreadID  string `json:"thread_id,omitempty" jsonschema:"thread the draft was created in"`
	Error     string `json:"error,omitempty" jsonschema:"expired, not_found or mail_creation_failed"`
	Retryable bool   `json:"retryable,omitempty" jsonschema:"true when the same confirmation ID may be confirmed again"`
	Message   string `json:"message,omitempty" jsonschema:"what to do next"`
}

type CancelEmailReplyRequest struct {
	ConfirmationID string `json:"confirmation_id" jsonschema:"the confirmation ID from prepare_email_reply"`
}

type CancelEmailReplyResponse struct {
	Success bool   `json:"success" jsonschema:"true when the staged draft was discarded"`
	State   string `json:"state,omitempty" jsonschema:"CANCELLED on success"`
	Error   string `json:"error,omitempty" jsonschema:"expired or not_found"`
	Message string `json:"message,omitempty" jsonschema:"details"`
}

func NewReply(protocol replyProtocol) *Reply {
	return &Reply{protocol: protocol}
}

// Reply exposes the prepare/confirm/cancel workflow as tools.
type Reply struct {
	protocol replyProtocol
}

func (t *Reply) PrepareEmailReply(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PrepareEmailReplyRequest,
) (*mcp.CallToolResult, PrepareEmailReplyResponse, error) {
	res, err := t.protocol.Prepare(ctx, confirm.PrepareRequest{
		Instructions:  input.Instructions,
		ThreadHint:    input.ThreadID,
		TalkingPoints: input.TalkingPoints,
		Replaces:      input.Replaces,
	})
	if err != nil {
		out, ok := prepareOutcome(err)
		if !ok {
			return nil, PrepareEmailReplyResponse{}, fmt.Errorf("prepare failed: %w", err)
		}
		return nil, out, nil
	}

	warnings := make([]Warning, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, Warning{Kind: string(w.Kind), Source: w.Source, Message: w.Message})
	}
	to := res.Draft.To
	if to == nil {
		to = []string{}
	}

	return nil, PrepareEmailReplyResponse{
		ConfirmationID: res.Token,
		Preview:        res.Preview,
		ThreadID:       res.Draft.ThreadID,
		To:             to,
		Subject:        res.Draft.Subject,
		Body:           res.Draft.Body,
		Confidence:     string(res.Draft.Confidence),
		ContextSummary: res.Draft.ContextSummary,
		Warnings:       warnings,
		ExpiresAt:      res.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// prepareOutcome renders the prepare failures the caller can act on. Other
// errors are reported as tool errors.
func prepareOutcome(err error) (PrepareEmailReplyResponse, bool) {
	var (
		ambiguous *reply.AmbiguousTargetError
		notFound  *reply.NotFoundError
		genErr    *reply.GenerationError
	)
	out := PrepareEmailReplyResponse{
		To:       []string{},
		Warnings: []Warning{},
		Message:  err.Error(),
	}

	switch {
	case errors.As(err, &ambiguous):
		out.Error = "ambiguous_target"
		for _, c := range ambiguous.Candidates {
			out.Candidates = append(out.Candidates, ThreadCandidate{
				ThreadID:     c.ThreadID,
				Subject:      c.Subject,
				Participants: c.Participants,
				Snippet:      c.Snippet,
			})
		}
	case errors.As(err, &notFound):
		out.Error = "thread_not_found"
	case errors.As(err, &genErr):
		out.Error = "generation_failed"
	default:
		return PrepareEmailReplyResponse{}, false
	}

	return out, true
}

func (t *Reply) ConfirmEmailReply(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConfirmEmailReplyRequest,
) (*mcp.CallToolResult, ConfirmEmailReplyResponse, error) {
	if input.ConfirmationID == "" {
		return nil, ConfirmEmailReplyResponse{}, errConfirmationIDRequired
	}

	res, err := t.protocol.Confirm(ctx, input.ConfirmationID, input.EditedBody)
	if err != nil {
		code := reply.Code(err)
		if code == "" {
			return nil, ConfirmEmailReplyResponse{}, fmt.Errorf("confirm failed: %w", err)
		}

		var downstream *reply.DownstreamCreationError
		retryable := errors.As(err, &downstream) && downstream.Retryable

		return nil, ConfirmEmailReplyResponse{
			Error:     string(code),
			Retryable: retryable,
			Message:   err.Error(),
		}, nil
	}

	return nil, ConfirmEmailReplyResponse{
		Success:  true,
		State:    string(res.State),
		DraftID:  res.DraftID,
		ThreadID: res.Draft.ThreadID,
		Message:  "Draft created in Gmail. Review and send it from your drafts folder.",
	}, nil
}

func (t *Reply) CancelEmailReply(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CancelEmailReplyRequest,
) (*mcp.CallToolResult, CancelEmailReplyResponse, error) {
	if input.ConfirmationID == "" {
		return nil, CancelEmailReplyResponse{}, errConfirmationIDRequired
	}

	res, err := t.protocol.Cancel(input.ConfirmationID)
	if err != nil {
		code := reply.Code(err)
		if code == "" {
			return nil, CancelEmailReplyResponse{}, fmt.Errorf("cancel failed: %w", err)
		}
		return nil, CancelEmailReplyResponse{Error: string(code), Message: err.Error()}, nil
	}

	return nil, CancelEmailReplyResponse{Success: true, State: string(res.State)}, nil
}
