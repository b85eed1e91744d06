package tool_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/confirm"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
	"github.com/hal9000y/gmail-reply-mcp/internal/tool"
)

type gmailSvcMock struct {
	GetMessageFunc         func(ctx context.Context, msgID string) (*gmail.Message, error)
	ListMessagesFunc       func(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadataFunc func(ctx context.Context, msgID string) (*gmail.Message, error)
}

func (m *gmailSvcMock) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, msgID)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, Q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, msgID)
}

type threadsMock struct {
	FetchThreadFunc func(ctx context.Context, threadID string) (reply.ThreadContext, error)
}

func (m *threadsMock) FetchThread(ctx context.Context, threadID string) (reply.ThreadContext, error) {
	return m.FetchThreadFunc(ctx, threadID)
}

type protocolMock struct {
	PrepareFunc func(ctx context.Context, req confirm.PrepareRequest) (confirm.PrepareResult, error)
	ConfirmFunc func(ctx context.Context, token, editedBody string) (confirm.ConfirmResult, error)
	CancelFunc  func(token string) (confirm.ConfirmResult, error)
}

func (m *protocolMock) Prepare(ctx context.Context, req confirm.PrepareRequest) (confirm.PrepareResult, error) {
	return m.PrepareFunc(ctx, req)
}

func (m *protocolMock) Confirm(ctx context.Context, token, editedBody string) (confirm.ConfirmResult, error) {
	return m.ConfirmFunc(ctx, token, editedBody)
}

func (m *protocolMock) Cancel(token string) (confirm.ConfirmResult, error) {
	return m.CancelFunc(token)
}

// connect serves a tool server over in-memory transports and returns the
// client side. Both sessions are closed when the test ends.
func connect(t *testing.T, svc *gmailSvcMock, threads *threadsMock, protocol *protocolMock) *mcp.ClientSession {
	t.Helper()

	if svc == nil {
		svc = &gmailSvcMock{}
	}
	if threads == nil {
		threads = &threadsMock{}
	}
	if protocol == nil {
		protocol = &protocolMock{}
	}

	server := tool.NewServer(svc, threads, protocol)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return clientSession
}
