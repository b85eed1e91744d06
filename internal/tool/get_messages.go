package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
)

const maxGetMessages = 20

var errTooManyMessages = fmt.Errorf("at most %d message ids per call", maxGetMessages)

var errMessageIDsRequired = errors.New("message_ids is required")

type GetMessagesRequest struct {
	MessageIDs []string `json:"message_ids" jsonschema:"message IDs to read, e.g. from search_messages"`
}

type GetMessagesResponse struct {
	Messages []MessageContent `json:"messages" jsonschema:"messages in request order"`
}

// MessageContent is one message with its body as plain text.
type MessageContent struct {
	Summary     MessageSummary `json:"summary" jsonschema:"summary"`
	BodyText    string         `json:"body_text,omitempty" jsonschema:"text body, html bodies are converted"`
	Attachments []Attachment   `json:"attachments,omitempty" jsonschema:"attachments, content not included"`
}

type Attachment struct {
	ID       string `json:"id" jsonschema:"Gmail attachment ID"`
	Filename string `json:"filename" jsonschema:"original filename"`
	MimeType string `json:"mime_type" jsonschema:"MIME type"`
	Size     int64  `json:"size" jsonschema:"size in bytes"`
}

type getMessagesSvc interface {
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
}

func NewGetMessages(svc getMessagesSvc) *GetMessages {
	return &GetMessages{svc: svc}
}

// GetMessages reads full messages so the assistant can quote them when
// preparing a reply.
type GetMessages struct {
	svc getMessagesSvc
}

func (t *GetMessages) GetMessages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMessagesRequest,
) (*mcp.CallToolResult, GetMessagesResponse, error) {
	switch {
	case len(input.MessageIDs) == 0:
		return nil, GetMessagesResponse{}, errMessageIDsRequired
	case len(input.MessageIDs) > maxGetMessages:
		return nil, GetMessagesResponse{}, errTooManyMessages
	}

	messages := make([]MessageContent, len(input.MessageIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, msgID := range input.MessageIDs {
		g.Go(func() error {
			msg, err := t.svc.GetMessage(gctx, msgID)
			if err != nil {
				return fmt.Errorf("get message %s failed: %w", msgID, err)
			}
			messages[i] = messageContent(msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, GetMessagesResponse{}, err
	}

	return nil, GetMessagesResponse{Messages: messages}, nil
}

func messageContent(msg *gmail.Message) MessageContent {
	content := MessageContent{Summary: extractMessageSummary(msg)}
	if msg.Payload == nil {
		return content
	}

	content.BodyText = format.BodyText(msg.Payload)

	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part.Body != nil && part.Body.AttachmentId != "" {
			content.Attachments = append(content.Attachments, Attachment{
				ID:       part.Body.AttachmentId,
				Filename: part.Filename,
				MimeType: part.MimeType,
				Size:     part.Body.Size,
			})
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(msg.Payload)

	return content
}
