package connector_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-reply-mcp/internal/connector"
	"github.com/hal9000y/gmail-reply-mcp/internal/gather"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

func TestFetchThread(t *testing.T) {
	svc := &gmailSvcMock{
		GetThreadFunc: func(_ context.Context, threadID string) (*gmail.Thread, error) {
			require.Equal(t, "t-100", threadID)
			return pricingThread(), nil
		},
		GetProfileFunc: func(context.Context) (*gmail.Profile, error) {
			return &gmail.Profile{EmailAddress: "Me@Example.com"}, nil
		},
	}

	threads := connector.NewThreads(svc, connector.NewAccount(svc))
	got, err := threads.FetchThread(context.Background(), "t-100")
	require.NoError(t, err)

	assert.Equal(t, "t-100", got.ThreadID)
	assert.Equal(t, "Pricing question", got.Subject)
	require.Len(t, got.Messages, 3)

	assert.Equal(t, reply.MessageSummary{
		MessageID: "m1@acme.com",
		From:      "john@acme.com",
		To:        []string{"me@example.com"},
		Date:      time.UnixMilli(1757844000000).UTC(),
		Snippet:   "How much is the team plan?",
		Inbound:   true,
	}, got.Messages[0])

	assert.False(t, got.Messages[1].Inbound)
	assert.Equal(t, "Let me check", got.Messages[1].Snippet)

	assert.True(t, got.Messages[2].Inbound)
	assert.Equal(t, "Any update?", got.Messages[2].Snippet)
	assert.Equal(t, []string{"me@example.com", "boss@acme.com"}, got.Messages[2].To)

	assert.Equal(t, reply.ThreadingIDs{
		MessageID:  "m3@acme.com",
		References: []string{"m1@acme.com", "m2@example.com"},
	}, got.LastInbound)
	assert.Equal(t, "john@acme.com", got.PrimaryRecipient)
}

func TestFetchThreadOnlySentMessages(t *testing.T) {
	thread := pricingThread()
	thread.Messages = thread.Messages[1:2]

	svc := &gmailSvcMock{
		GetThreadFunc: func(context.Context, string) (*gmail.Thread, error) { return thread, nil },
	}

	got, err := connector.NewThreads(svc, nil).FetchThread(context.Background(), "t-100")
	require.NoError(t, err)
	assert.Equal(t, "john@acme.com", got.PrimaryRecipient)
	assert.Equal(t, "m2@example.com", got.LastInbound.MessageID)
	assert.Equal(t, "Re: Pricing question", got.Subject)
}

func TestFetchThreadError(t *testing.T) {
	svc := &gmailSvcMock{
		GetThreadFunc: func(context.Context, string) (*gmail.Thread, error) {
			return nil, errors.New("googleapi: Error 404: Requested entity was not found")
		},
	}

	_, err := connector.NewThreads(svc, nil).FetchThread(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "svc.GetThread failed")
}

func TestFetchThreadNotFound(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "unknown id", err: &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}, wantNotFound: true},
		{name: "malformed id", err: &googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid id value"}, wantNotFound: true},
		{name: "backend error", err: &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "Backend Error"}},
		{name: "transport error", err: errors.New("dial tcp: connection refused")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &gmailSvcMock{
				GetThreadFunc: func(context.Context, string) (*gmail.Thread, error) {
					return nil, fmt.Errorf("threads.Get failed: %w", tc.err)
				},
			}

			_, err := connector.NewThreads(svc, nil).FetchThread(context.Background(), "bogus")
			require.Error(t, err)

			var notFound *reply.NotFoundError
			assert.Equal(t, tc.wantNotFound, errors.As(err, &notFound))
			if tc.wantNotFound {
				assert.Equal(t, "bogus", notFound.ThreadID)
				assert.Equal(t, "email thread bogus was not found", err.Error())
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestFetchThreadNotFoundAbortsGather(t *testing.T) {
	svc := &gmailSvcMock{
		GetThreadFunc: func(context.Context, string) (*gmail.Thread, error) {
			return nil, &googleapi.Error{Code: http.StatusNotFound}
		},
	}

	o := gather.NewOrchestrator(connector.NewThreads(svc, nil), nil, nil)
	_, _, err := o.Gather(context.Background(), gather.Request{ThreadHint: "bogus"})

	var fatal *reply.FatalGatherError
	require.ErrorAs(t, err, &fatal)
	var notFound *reply.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "bogus", notFound.ThreadID)
}

func TestSearchThreads(t *testing.T) {
	other := &gmail.Thread{
		Id: "t-200",
		Messages: []*gmail.Message{{
			Id: "g9",
			Payload: &gmail.MessagePart{Headers: headers(
				"From", "jane@acme.com",
				"To", "me@example.com",
				"Subject", "Lunch",
			)},
			Snippet: "Lunch on Friday?",
		}},
	}

	svc := &gmailSvcMock{
		ListThreadsFunc: func(_ context.Context, q string, maxResults int64) (*gmail.ListThreadsResponse, error) {
			assert.Equal(t, "from:john@acme.com OR to:john@acme.com", q)
			assert.Equal(t, int64(5), maxResults)
			return &gmail.ListThreadsResponse{Threads: []*gmail.Thread{{Id: "t-100"}, {Id: "t-200"}}}, nil
		},
		GetThreadFunc: func(_ context.Context, threadID string) (*gmail.Thread, error) {
			if threadID == "t-100" {
				return pricingThread(), nil
			}
			return other, nil
		},
	}

	got, err := connector.NewThreads(svc, nil).SearchThreads(context.Background(), "from:john@acme.com OR to:john@acme.com", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, reply.ThreadCandidate{
		ThreadID:     "t-100",
		Subject:      "Pricing question",
		Participants: []string{"john@acme.com", "me@example.com", "boss@acme.com"},
		Snippet:      "Any update?",
	}, got[0])
	assert.Equal(t, "t-200", got[1].ThreadID)
	assert.Equal(t, "Lunch", got[1].Subject)
}

func TestSearchThreadsErrors(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		svc := &gmailSvcMock{
			ListThreadsFunc: func(context.Context, string, int64) (*gmail.ListThreadsResponse, error) {
				return nil, errors.New("quota")
			},
		}
		_, err := connector.NewThreads(svc, nil).SearchThreads(context.Background(), "q", 5)
		require.ErrorContains(t, err, "quota")
	})

	t.Run("get", func(t *testing.T) {
		svc := &gmailSvcMock{
			ListThreadsFunc: func(context.Context, string, int64) (*gmail.ListThreadsResponse, error) {
				return &gmail.ListThreadsResponse{Threads: []*gmail.Thread{{Id: "t-1"}}}, nil
			},
			GetThreadFunc: func(context.Context, string) (*gmail.Thread, error) {
				return nil, errors.New("gone")
			},
		}
		_, err := connector.NewThreads(svc, nil).SearchThreads(context.Background(), "q", 5)
		require.ErrorContains(t, err, "get thread t-1 failed")
	})
}

func TestAccountEmailCached(t *testing.T) {
	calls := 0
	svc := &gmailSvcMock{
		GetProfileFunc: func(context.Context) (*gmail.Profile, error) {
			calls++
			return &gmail.Profile{EmailAddress: "Me@Example.com"}, nil
		},
	}

	account := connector.NewAccount(svc)
	for range 3 {
		email, err := account.Email(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "me@example.com", email)
	}
	assert.Equal(t, 1, calls)
}
