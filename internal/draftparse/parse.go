// Package draftparse turns free-form generator output into a structured reply
// draft. Parsing never fails; every fallback is recorded as a degradation and
// lowers the draft confidence.
package draftparse

import (
	"regexp"
	"strings"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

// Degradation reasons reported in ParsedDraft.Degradations.
const (
	DegradedEmptyOutput  = "generator returned empty output"
	DegradedNoDelimiter  = "no draft delimiter found, using the full generator output as body"
	DegradedEmptyBody    = "draft body is empty"
	DegradedNoSubject    = "thread has no subject"
	DegradedNoRecipient  = "no recipient could be resolved from the thread"
	noSubjectPlaceholder = "(no subject)"
)

var (
	subjectTagRe = regexp.MustCompile(`(?mi)^[ \t]*subject:[ \t]*(.+?)[ \t]*$`)
	tagLineRe    = regexp.MustCompile(`(?i)^(subject|to|from|cc|in-reply-to|references|message-id):`)
)

// Body delimiters, tried in order. The first match wins.
var extractors = []*regexp.Regexp{
	regexp.MustCompile("(?s)```email[ \\t]*\\r?\\n(.*?)```"),
	regexp.MustCompile(`(?s)<draft>(.*?)</draft>`),
	regexp.MustCompile(`(?s)---BEGIN DRAFT---(.*?)---END DRAFT---`),
	regexp.MustCompile(`(?is)━{3,}[^\n]*DRAFT[^\n]*━{3,}[ \t]*\r?\n(.*?)(?:\n[ \t]*━{3,}|\z)`),
}

// Parse extracts recipient, subject, body and threading headers from raw
// generator output for a reply in thread.
func Parse(raw string, thread reply.ThreadContext) reply.ParsedDraft {
	var degradations []string
	degrade := func(reason string) {
		degradations = append(degradations, reason)
	}

	subject := explicitSubject(raw)
	if subject == "" {
		var ok bool
		subject, ok = ReplySubject(thread.Subject)
		if !ok {
			degrade(DegradedNoSubject)
		}
	}

	to := recipients(thread)
	if len(to) == 0 {
		degrade(DegradedNoRecipient)
	}

	var body string
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		degrade(DegradedEmptyOutput)
	default:
		extracted, ok := extractBody(raw)
		if !ok {
			degrade(DegradedNoDelimiter)
			extracted = trimmed
		}
		body = stripTagLines(extracted)
		if body == "" {
			degrade(DegradedEmptyBody)
		}
	}

	confidence := reply.ConfidenceHigh
	if len(degradations) > 0 {
		confidence = reply.ConfidenceLow
	}

	return reply.ParsedDraft{
		To:           to,
		Subject:      subject,
		Body:         body,
		Headers:      threadingHeaders(thread.LastInbound),
		Confidence:   confidence,
		Degradations: degradations,
	}
}

// ReplySubject prefixes subject with "Re: " unless it already carries a reply
// prefix. It reports false when the thread subject is empty.
func ReplySubject(subject string) (string, bool) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Re: " + noSubjectPlaceholder, false
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject, true
	}
	return "Re: " + subject, true
}

func explicitSubject(raw string) string {
	m := subjectTagRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractBody(raw string) (string, bool) {
	for _, re := range extractors {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// stripTagLines drops header-like lines at the top of a body.
func stripTagLines(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		if line != "" && !tagLineRe.MatchString(line) {
			break
		}
		start++
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func recipients(thread reply.ThreadContext) []string {
	if m, ok := thread.LastInboundMessage(); ok && m.From != "" {
		return []string{m.From}
	}
	if thread.PrimaryRecipient != "" {
		return []string{thread.PrimaryRecipient}
	}
	return nil
}

func threadingHeaders(parent reply.ThreadingIDs) reply.Headers {
	if parent.MessageID == "" {
		return reply.Headers{}
	}

	seen := make(map[string]struct{}, len(parent.References)+1)
	refs := make([]string, 0, len(parent.References)+1)
	for _, id := range append(append([]string{}, parent.References...), parent.MessageID) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}

	return reply.Headers{InReplyTo: parent.MessageID, References: refs}
}
