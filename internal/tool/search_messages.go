package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
)

const metadataFetchers = 4

type SearchMessagesRequest struct {
	Query      string `json:"query" jsonschema:"the Gmail search query"`
	MaxResults int64  `json:"max_results,omitempty" jsonschema:"max results per page"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"token for pagination"`
}

type SearchMessagesResponse struct {
	Messages      []MessageSummary `json:"messages" jsonschema:"array of message summaries"`
	NextPageToken string           `json:"next_page_token,omitempty" jsonschema:"token for next page"`
	TotalResults  int              `json:"total_results" jsonschema:"number of messages returned"`
}

type searchMessagesSvc interface {
	ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

func NewSearchMessages(svc searchMessagesSvc) *SearchMessages {
	return &SearchMessages{
		svc: svc,
	}
}

type SearchMessages struct {
	svc searchMessagesSvc
}

// SearchMessages lists messages matching a Gmail query with their headers.
// Metadata is fetched concurrently; result order follows the list order.
func (t *SearchMessages) SearchMessages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchMessagesRequest,
) (*mcp.CallToolResult, SearchMessagesResponse, error) {
	input.MaxResults = normalizeMaxResults(input.MaxResults)

	result, err := t.svc.ListMessages(ctx, input.Query, input.PageToken, input.MaxResults)
	if err != nil {
		return nil, SearchMessagesResponse{}, fmt.Errorf("svc.ListMessages failed: %w", err)
	}

	messages := make([]MessageSummary, len(result.Messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataFetchers)
	for i, m := range result.Messages {
		g.Go(func() error {
			msg, err := t.svc.GetMessageMetadata(gctx, m.Id)
			if err != nil {
				return fmt.Errorf("get message %s failed: %w", m.Id, err)
			}
			messages[i] = extractMessageSummary(msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, SearchMessagesResponse{}, err
	}

	return nil, SearchMessagesResponse{
		Messages:      messages,
		NextPageToken: result.NextPageToken,
		TotalResults:  len(messages),
	}, nil
}
