package draftparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reply-mcp/internal/draftparse"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

func pricingThread() reply.ThreadContext {
	return reply.ThreadContext{
		ThreadID: "t-100",
		Subject:  "Pricing question",
		Messages: []reply.MessageSummary{
			{MessageID: "m1@acme.com", From: "john@acme.com", To: []string{"me@example.com"}, Inbound: true},
			{MessageID: "m2@example.com", From: "me@example.com", To: []string{"john@acme.com"}, References: []string{"m1@acme.com"}},
			{MessageID: "m3@acme.com", From: "john@acme.com", To: []string{"me@example.com"}, Inbound: true, References: []string{"m1@acme.com", "m2@example.com"}},
		},
		LastInbound: reply.ThreadingIDs{
			MessageID:  "m3@acme.com",
			References: []string{"m1@acme.com", "m2@example.com"},
		},
		PrimaryRecipient: "john@acme.com",
	}
}

func TestParseDelimiters(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "fenced_block",
			raw:  "Here is your draft:\n```email\nHi John,\n\nPlans start at $29.\n```\nLet me know.",
		},
		{
			name: "draft_tags",
			raw:  "Sure.\n<draft>\nHi John,\n\nPlans start at $29.\n</draft>",
		},
		{
			name: "begin_end_markers",
			raw:  "---BEGIN DRAFT---\nHi John,\n\nPlans start at $29.\n---END DRAFT---\nNotes: none",
		},
		{
			name: "banner",
			raw:  "Context gathered.\n━━━ DRAFT REPLY ━━━\nHi John,\n\nPlans start at $29.\n━━━━━━━━━━━━━━━\nReply with confirm.",
		},
		{
			name: "banner_until_end",
			raw:  "━━━ DRAFT ━━━\nHi John,\n\nPlans start at $29.\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := draftparse.Parse(tc.raw, pricingThread())

			assert.Equal(t, "Hi John,\n\nPlans start at $29.", got.Body)
			assert.Equal(t, reply.ConfidenceHigh, got.Confidence)
			assert.Empty(t, got.Degradations)
		})
	}
}

func TestParseDelimiterPrecedence(t *testing.T) {
	raw := "<draft>from tags</draft>\n```email\nfrom fence\n```"

	got := draftparse.Parse(raw, pricingThread())
	assert.Equal(t, "from fence", got.Body)
}

func TestParseSubject(t *testing.T) {
	cases := []struct {
		name          string
		threadSubject string
		raw           string
		expected      string
		degraded      bool
	}{
		{name: "adds_prefix", threadSubject: "Pricing question", raw: "```email\nbody\n```", expected: "Re: Pricing question"},
		{name: "keeps_existing_prefix", threadSubject: "Re: Pricing question", raw: "```email\nbody\n```", expected: "Re: Pricing question"},
		{name: "keeps_upper_prefix", threadSubject: "RE: Pricing question", raw: "```email\nbody\n```", expected: "RE: Pricing question"},
		{name: "keeps_lower_prefix", threadSubject: "re: Pricing question", raw: "```email\nbody\n```", expected: "re: Pricing question"},
		{name: "explicit_tag_wins", threadSubject: "Pricing question", raw: "```email\nSubject: Our plans\n\nbody\n```", expected: "Our plans"},
		{name: "empty_thread_subject", threadSubject: "", raw: "```email\nbody\n```", expected: "Re: (no subject)", degraded: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			thread := pricingThread()
			thread.Subject = tc.threadSubject

			got := draftparse.Parse(tc.raw, thread)
			assert.Equal(t, tc.expected, got.Subject)
			assert.Equal(t, "body", got.Body)
			if tc.degraded {
				assert.Contains(t, got.Degradations, draftparse.DegradedNoSubject)
				assert.Equal(t, reply.ConfidenceLow, got.Confidence)
			} else {
				assert.Equal(t, reply.ConfidenceHigh, got.Confidence)
			}
		})
	}
}

func TestParseNoDelimiterFallsBackToRawOutput(t *testing.T) {
	got := draftparse.Parse("  Hi John,\n\nThanks for reaching out.  \n", pricingThread())

	assert.Equal(t, "Hi John,\n\nThanks for reaching out.", got.Body)
	assert.Equal(t, reply.ConfidenceLow, got.Confidence)
	assert.Equal(t, []string{draftparse.DegradedNoDelimiter}, got.Degradations)
}

func TestParseEmptyOutput(t *testing.T) {
	got := draftparse.Parse(" \n\t", pricingThread())

	assert.Empty(t, got.Body)
	assert.Equal(t, reply.ConfidenceLow, got.Confidence)
	assert.Equal(t, []string{draftparse.DegradedEmptyOutput}, got.Degradations)
	assert.Equal(t, "Re: Pricing question", got.Subject)
}

func TestParseEmptyDelimitedBody(t *testing.T) {
	got := draftparse.Parse("<draft>\nSubject: x\n</draft>", pricingThread())

	assert.Empty(t, got.Body)
	assert.Contains(t, got.Degradations, draftparse.DegradedEmptyBody)
}

func TestParseRecipient(t *testing.T) {
	t.Run("most_recent_inbound_sender", func(t *testing.T) {
		thread := pricingThread()
		thread.Messages[0].From = "old@acme.com"

		got := draftparse.Parse("<draft>ok</draft>", thread)
		assert.Equal(t, []string{"john@acme.com"}, got.To)
	})

	t.Run("falls_back_to_primary_recipient", func(t *testing.T) {
		thread := pricingThread()
		thread.Messages = []reply.MessageSummary{{MessageID: "x", From: "me@example.com"}}

		got := draftparse.Parse("<draft>ok</draft>", thread)
		assert.Equal(t, []string{"john@acme.com"}, got.To)
		assert.Equal(t, reply.ConfidenceHigh, got.Confidence)
	})

	t.Run("none", func(t *testing.T) {
		got := draftparse.Parse("<draft>ok</draft>", reply.ThreadContext{Subject: "Hello"})
		assert.Empty(t, got.To)
		assert.Equal(t, []string{draftparse.DegradedNoRecipient}, got.Degradations)
	})
}

func TestParseThreadingHeaders(t *testing.T) {
	got := draftparse.Parse("<draft>ok</draft>", pricingThread())

	assert.Equal(t, "m3@acme.com", got.Headers.InReplyTo)
	assert.Equal(t, []string{"m1@acme.com", "m2@example.com", "m3@acme.com"}, got.Headers.References)
}

func TestParseThreadingHeadersDeduplicated(t *testing.T) {
	thread := pricingThread()
	thread.LastInbound.References = []string{"m1@acme.com", "m3@acme.com", "m1@acme.com"}

	got := draftparse.Parse("<draft>ok</draft>", thread)
	assert.Equal(t, []string{"m1@acme.com", "m3@acme.com"}, got.Headers.References)
}

func TestParseWithoutThreadingIDs(t *testing.T) {
	thread := pricingThread()
	thread.LastInbound = reply.ThreadingIDs{}

	got := draftparse.Parse("<draft>ok</draft>", thread)
	require.Empty(t, got.Headers.InReplyTo)
	assert.Empty(t, got.Headers.References)
	assert.Equal(t, reply.ConfidenceHigh, got.Confidence)
}

func TestReplySubject(t *testing.T) {
	s, ok := draftparse.ReplySubject("  Shipping  ")
	assert.True(t, ok)
	assert.Equal(t, "Re: Shipping", s)
}
