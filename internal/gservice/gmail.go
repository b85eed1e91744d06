// Package gservice is a thin wrapper over the Gmail API calls the assistant
// needs: reading threads and messages and creating drafts.
package gservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUserID = "me"

// Scopes are the OAuth scopes the service needs: read mail and create drafts.
var Scopes = []string{gmail.GmailReadonlyScope, gmail.GmailComposeScope}

type transporter interface {
	Transport(ctx context.Context) (http.RoundTripper, error)
}

// TransportFunc adapts a function to the transporter interface.
type TransportFunc func(ctx context.Context) (http.RoundTripper, error)

// Transport calls f.
func (f TransportFunc) Transport(ctx context.Context) (http.RoundTripper, error) {
	return f(ctx)
}

func NewGmail(tr transporter, opts ...option.ClientOption) *GMail {
	return &GMail{
		tr:   tr,
		opts: opts,
	}
}

type GMail struct {
	tr   transporter
	opts []option.ClientOption
}

func (m *GMail) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Messages.List(gmailUserID).
		Q(Q).
		PageToken(pageToken).
		MaxResults(maxResults).
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

func (m *GMail) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("metadata").
		MetadataHeaders("From", "To", "Cc", "Subject", "Date", "Message-ID", "References").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

func (m *GMail) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

func (m *GMail) ListThreads(ctx context.Context, Q string, maxResults int64) (*gmail.ListThreadsResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	result, err := svc.Users.Threads.List(gmailUserID).
		Q(Q).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("threads.List failed: %w", err)
	}

	return result, nil
}

// GetThread returns the thread with every message in full format.
func (m *GMail) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	thread, err := svc.Users.Threads.Get(gmailUserID, threadID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("threads.Get failed: %w", err)
	}

	return thread, nil
}

// CreateDraft stores raw (an RFC 5322 message) as a draft in threadID.
func (m *GMail) CreateDraft(ctx context.Context, threadID string, raw []byte) (*gmail.Draft, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	draft, err := svc.Users.Drafts.Create(gmailUserID, &gmail.Draft{
		Message: &gmail.Message{
			ThreadId: threadID,
			Raw:      base64.URLEncoding.EncodeToString(raw),
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drafts.Create failed: %w", err)
	}

	return draft, nil
}

func (m *GMail) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("users.GetProfile failed: %w", err)
	}

	return profile, nil
}

func (m *GMail) newSvc(ctx context.Context) (*gmail.Service, error) {
	tr, err := m.tr.Transport(ctx)
	if err != nil {
		return nil, fmt.Errorf("tr.Transport failed: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(&http.Client{Transport: tr})}, m.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
