package confirm_test

import (
	"context"
	"sync"
	"time"

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

type generatorMock struct {
	GenerateFunc func(ctx context.Context, compiled, instructions string) (string, error)
}

func (m *generatorMock) Generate(ctx context.Context, compiled, instructions string) (string, error) {
	return m.GenerateFunc(ctx, compiled, instructions)
}

type mailCreatorMock struct {
	CreateMailDraftFunc func(ctx context.Context, d reply.OutgoingDraft) (string, error)
}

func (m *mailCreatorMock) CreateMailDraft(ctx context.Context, d reply.OutgoingDraft) (string, error) {
	return m.CreateMailDraftFunc(ctx, d)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
