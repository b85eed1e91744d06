package gather_test

import (
	"context"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

type threadSourceMock struct {
	FetchThreadFunc   func(ctx context.Context, threadID string) (reply.ThreadContext, error)
	SearchThreadsFunc func(ctx context.Context, query string, max int64) ([]reply.ThreadCandidate, error)
}

func (m *threadSourceMock) FetchThread(ctx context.Context, threadID string) (reply.ThreadContext, error) {
	return m.FetchThreadFunc(ctx, threadID)
}

func (m *threadSourceMock) SearchThreads(ctx context.Context, query string, max int64) ([]reply.ThreadCandidate, error) {
	return m.SearchThreadsFunc(ctx, query, max)
}

type historySourceMock struct {
	FetchHistoryFunc func(ctx context.Context, address string) (reply.CorrespondenceSummary, error)
}

func (m *historySourceMock) FetchHistory(ctx context.Context, address string) (reply.CorrespondenceSummary, error) {
	return m.FetchHistoryFunc(ctx, address)
}

type knowledgeSourceMock struct {
	SearchFunc func(ctx context.Context, topic string) ([]reply.KnowledgeSnippet, error)
}

func (m *knowledgeSourceMock) Search(ctx context.Context, topic string) ([]reply.KnowledgeSnippet, error) {
	return m.SearchFunc(ctx, topic)
}
