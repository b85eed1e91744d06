package connector

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

type draftSvc interface {
	CreateDraft(ctx context.Context, threadID string, raw []byte) (*gmail.Draft, error)
}

// Drafts creates Gmail drafts from confirmed replies.
type Drafts struct {
	svc draftSvc
	now func() time.Time
}

func NewDrafts(svc draftSvc) *Drafts {
	return &Drafts{svc: svc, now: time.Now}
}

// CreateMailDraft composes d and stores it as a draft in its thread. It
// returns the Gmail draft id.
func (d *Drafts) CreateMailDraft(ctx context.Context, draft reply.OutgoingDraft) (string, error) {
	raw, err := format.ComposeReply(draft, d.now())
	if err != nil {
		return "", fmt.Errorf("format.ComposeReply failed: %w", err)
	}

	created, err := d.svc.CreateDraft(ctx, draft.ThreadID, raw)
	if err != nil {
		return "", fmt.Errorf("svc.CreateDraft failed: %w", err)
	}

	return created.Id, nil
}
