// Package reply holds the data model shared by the reply preparation and
// confirmation workflow.
package reply

import (
	"time"
)

// State is the lifecycle state of a staged reply draft.
type State string

const (
	StateNone      State = "NONE"
	StateStaged    State = "STAGED"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
	StateExpired   State = "EXPIRED"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled || s == StateExpired
}

// Confidence marks how much the output parser trusted its own extraction.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// MessageSummary is one message of a thread as seen by the orchestrator.
type MessageSummary struct {
	MessageID  string
	From       string
	To         []string
	Date       time.Time
	Snippet    string
	Inbound    bool
	References []string
}

// ThreadingIDs are the RFC 5322 identifiers of a message.
type ThreadingIDs struct {
	MessageID  string
	References []string
}

// ThreadContext is an immutable snapshot of one email conversation.
type ThreadContext struct {
	ThreadID         string
	Subject          string
	Messages         []MessageSummary
	LastInbound      ThreadingIDs
	PrimaryRecipient string
}

// LastInboundMessage returns the most recent message sent to the user.
func (t ThreadContext) LastInboundMessage() (MessageSummary, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Inbound {
			return t.Messages[i], true
		}
	}
	return MessageSummary{}, false
}

// Participants returns every distinct address seen in the thread.
func (t ThreadContext) Participants() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	for _, m := range t.Messages {
		add(m.From)
		for _, to := range m.To {
			add(to)
		}
	}
	return out
}

// ThreadCandidate is a search hit considered while resolving the target thread.
type ThreadCandidate struct {
	ThreadID     string
	Subject      string
	Participants []string
	Snippet      string
}

// CorrespondenceSummary is a digest of prior exchanges with one address.
// The zero value means "no history".
type CorrespondenceSummary struct {
	Address      string
	Text         string
	MessageCount int
}

// Empty reports whether there is no history to show.
func (c CorrespondenceSummary) Empty() bool {
	return c.MessageCount == 0 && c.Text == ""
}

// KnowledgeSnippet is one reference passage matched for a topic.
type KnowledgeSnippet struct {
	Topic    string
	Category string
	Question string
	Answer   string
}

// Headers are the threading headers of an outgoing reply.
type Headers struct {
	InReplyTo  string
	References []string
}

// ParsedDraft is the structured form of the generator output.
type ParsedDraft struct {
	To           []string
	Subject      string
	Body         string
	Headers      Headers
	Confidence   Confidence
	Degradations []string
}

// Draft is the value held by the staging store for one reply.
type Draft struct {
	ThreadID       string
	To             []string
	Subject        string
	Body           string
	Headers        Headers
	ContextSummary string
	Confidence     Confidence
	Attempts       int
}

// DraftRecord is a staged draft together with its token and timestamps.
type DraftRecord struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Draft
}

// OutgoingDraft is what the mail creation capability receives on confirm.
type OutgoingDraft struct {
	ThreadID string
	To       []string
	Subject  string
	Body     string
	Headers  Headers
}
