package connector

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

// DefaultHistoryResults is the number of prior messages summarized.
const DefaultHistoryResults = 10

type messageSvc interface {
	ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

// History summarizes earlier correspondence with one address.
type History struct {
	svc        messageSvc
	maxResults int64
}

func NewHistory(svc messageSvc, maxResults int64) *History {
	if maxResults <= 0 {
		maxResults = DefaultHistoryResults
	}
	return &History{svc: svc, maxResults: maxResults}
}

// FetchHistory lists recent messages from or to address. No messages is a
// valid, empty summary.
func (h *History) FetchHistory(ctx context.Context, address string) (reply.CorrespondenceSummary, error) {
	query := fmt.Sprintf("from:%s OR to:%s", address, address)

	result, err := h.svc.ListMessages(ctx, query, "", h.maxResults)
	if err != nil {
		return reply.CorrespondenceSummary{}, fmt.Errorf("svc.ListMessages failed: %w", err)
	}
	if len(result.Messages) == 0 {
		return reply.CorrespondenceSummary{Address: address}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d previous email(s) with %s:\n", len(result.Messages), address)
	for _, m := range result.Messages {
		msg, err := h.svc.GetMessageMetadata(ctx, m.Id)
		if err != nil {
			return reply.CorrespondenceSummary{}, fmt.Errorf("get message %s failed: %w", m.Id, err)
		}

		var headers []*gmail.MessagePartHeader
		if msg.Payload != nil {
			headers = msg.Payload.Headers
		}
		fmt.Fprintf(&b, "- %s | From: %s | Subject: %s\n  %s\n",
			format.HeaderValue(headers, "Date"),
			format.HeaderValue(headers, "From"),
			format.HeaderValue(headers, "Subject"),
			strings.TrimSpace(msg.Snippet),
		)
	}

	return reply.CorrespondenceSummary{
		Address:      address,
		Text:         strings.TrimRight(b.String(), "\n"),
		MessageCount: len(result.Messages),
	}, nil
}
