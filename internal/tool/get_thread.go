package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

type GetThreadRequest struct {
	ThreadID string `json:"thread_id" jsonschema:"the Gmail thread ID"`
}

type GetThreadResponse struct {
	ThreadID         string          `json:"thread_id" jsonschema:"thread ID"`
	Subject          string          `json:"subject" jsonschema:"thread subject"`
	PrimaryRecipient string          `json:"primary_recipient,omitempty" jsonschema:"who a reply would be addressed to"`
	Participants     []string        `json:"participants" jsonschema:"every address seen in the thread"`
	Messages         []ThreadMessage `json:"messages" jsonschema:"messages, oldest first"`
}

type ThreadMessage struct {
	MessageID string   `json:"message_id,omitempty" jsonschema:"RFC 5322 Message-ID"`
	From      string   `json:"from" jsonschema:"sender address"`
	To        []string `json:"to,omitempty" jsonschema:"recipient addresses, CC included"`
	Timestamp string   `json:"timestamp,omitempty" jsonschema:"RFC 3339 receive time"`
	Inbound   bool     `json:"inbound" jsonschema:"true when the message was sent to the mailbox owner"`
	Body      string   `json:"body" jsonschema:"plain text body, truncated"`
}

var errThreadIDRequired = errors.New("thread_id is required")

type threadFetcher interface {
	FetchThread(ctx context.Context, threadID string) (reply.ThreadContext, error)
}

func NewGetThread(threads threadFetcher) *GetThread {
	return &GetThread{threads: threads}
}

type GetThread struct {
	threads threadFetcher
}

// GetThread returns a thread as the reply workflow sees it.
func (t *GetThread) GetThread(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetThreadRequest,
) (*mcp.CallToolResult, GetThreadResponse, error) {
	if input.ThreadID == "" {
		return nil, GetThreadResponse{}, errThreadIDRequired
	}

	thread, err := t.threads.FetchThread(ctx, input.ThreadID)
	if err != nil {
		return nil, GetThreadResponse{}, fmt.Errorf("threads.FetchThread failed: %w", err)
	}

	messages := make([]ThreadMessage, 0, len(thread.Messages))
	for _, m := range thread.Messages {
		tm := ThreadMessage{
			MessageID: m.MessageID,
			From:      m.From,
			To:        m.To,
			Inbound:   m.Inbound,
			Body:      m.Snippet,
		}
		if !m.Date.IsZero() {
			tm.Timestamp = m.Date.Format(time.RFC3339)
		}
		messages = append(messages, tm)
	}

	participants := thread.Participants()
	if participants == nil {
		participants = []string{}
	}

	return nil, GetThreadResponse{
		ThreadID:         thread.ThreadID,
		Subject:          thread.Subject,
		PrimaryRecipient: thread.PrimaryRecipient,
		Participants:     participants,
		Messages:         messages,
	}, nil
}
