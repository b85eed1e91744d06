package connector_test

import (
	"context"
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
)

type gmailSvcMock struct {
	ListThreadsFunc        func(ctx context.Context, Q string, maxResults int64) (*gmail.ListThreadsResponse, error)
	GetThreadFunc          func(ctx context.Context, threadID string) (*gmail.Thread, error)
	GetProfileFunc         func(ctx context.Context) (*gmail.Profile, error)
	ListMessagesFunc       func(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadataFunc func(ctx context.Context, msgID string) (*gmail.Message, error)
	CreateDraftFunc        func(ctx context.Context, threadID string, raw []byte) (*gmail.Draft, error)
}

func (m *gmailSvcMock) ListThreads(ctx context.Context, Q string, maxResults int64) (*gmail.ListThreadsResponse, error) {
	return m.ListThreadsFunc(ctx, Q, maxResults)
}

func (m *gmailSvcMock) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	return m.GetThreadFunc(ctx, threadID)
}

func (m *gmailSvcMock) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return m.GetProfileFunc(ctx)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, Q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, msgID)
}

func (m *gmailSvcMock) CreateDraft(ctx context.Context, threadID string, raw []byte) (*gmail.Draft, error) {
	return m.CreateDraftFunc(ctx, threadID, raw)
}

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func headers(kv ...string) []*gmail.MessagePartHeader {
	out := make([]*gmail.MessagePartHeader, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &gmail.MessagePartHeader{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

// pricingThread is a customer question, our answer and a follow-up.
func pricingThread() *gmail.Thread {
	return &gmail.Thread{
		Id:      "t-100",
		Snippet: "Any update?",
		Messages: []*gmail.Message{
			{
				Id:           "g1",
				InternalDate: 1757844000000,
				Snippet:      "How much is the team plan?",
				Payload: &gmail.MessagePart{
					MimeType: "text/plain",
					Headers: headers(
						"From", "John Doe <John@Acme.com>",
						"To", "Me <me@example.com>",
						"Subject", "Pricing question",
						"Message-ID", "<m1@acme.com>",
					),
					Body: &gmail.MessagePartBody{Data: b64("How much is the team plan?\n")},
				},
			},
			{
				Id:       "g2",
				LabelIds: []string{"SENT"},
				Snippet:  "Let me check",
				Payload: &gmail.MessagePart{
					Headers: headers(
						"From", "me@example.com",
						"To", "john@acme.com",
						"Subject", "Re: Pricing question",
						"Message-Id", "<m2@example.com>",
						"References", "<m1@acme.com>",
					),
				},
			},
			{
				Id:      "g3",
				Snippet: "Any update?",
				Payload: &gmail.MessagePart{
					MimeType: "text/html",
					Headers: headers(
						"From", "john@acme.com",
						"To", "me@example.com",
						"Cc", "Boss <boss@acme.com>",
						"Subject", "Re: Pricing question",
						"Message-ID", "<m3@acme.com>",
						"References", "<m1@acme.com> <m2@example.com>",
					),
					Body: &gmail.MessagePartBody{Data: b64("<p>Any <b>update</b>?</p>")},
				},
			},
		},
	}
}
