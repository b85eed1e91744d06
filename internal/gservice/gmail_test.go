package gservice_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-reply-mcp/internal/gservice"
)

func plainTransport(context.Context) (http.RoundTripper, error) {
	return http.DefaultTransport, nil
}

func newGmail(t *testing.T, h http.HandlerFunc) *gservice.GMail {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return gservice.NewGmail(gservice.TransportFunc(plainTransport), option.WithEndpoint(srv.URL+"/"))
}

func TestGetThread(t *testing.T) {
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/threads/t-1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gmail.Thread{
			Id:       "t-1",
			Messages: []*gmail.Message{{Id: "m-1", ThreadId: "t-1"}},
		})
	})

	thread, err := svc.GetThread(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", thread.Id)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "m-1", thread.Messages[0].Id)
}

func TestCreateDraft(t *testing.T) {
	raw := []byte("Subject: Re: Pricing\r\n\r\nHi John")

	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/drafts", r.URL.Path)

		var in gmail.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.NotNil(t, in.Message)
		assert.Equal(t, "t-1", in.Message.ThreadId)

		decoded, err := base64.URLEncoding.DecodeString(in.Message.Raw)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gmail.Draft{Id: "r-1", Message: &gmail.Message{Id: "m-9", ThreadId: "t-1"}})
	})

	draft, err := svc.CreateDraft(context.Background(), "t-1", raw)
	require.NoError(t, err)
	assert.Equal(t, "r-1", draft.Id)
}

func TestListThreadsError(t *testing.T) {
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "subject:pricing", r.URL.Query().Get("q"))
		http.Error(w, `{"error":{"code":503,"message":"backend unavailable"}}`, http.StatusServiceUnavailable)
	})

	_, err := svc.ListThreads(context.Background(), "subject:pricing", 5)
	require.ErrorContains(t, err, "threads.List failed")
}

func TestTransportError(t *testing.T) {
	svc := gservice.NewGmail(gservice.TransportFunc(func(context.Context) (http.RoundTripper, error) {
		return nil, errors.New("token not set")
	}))

	_, err := svc.GetProfile(context.Background())
	require.EqualError(t, err, "newSvc failed: tr.Transport failed: token not set")
}
