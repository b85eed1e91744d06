package gather

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSummaryRunes bounds the context summary stored with a draft.
const MaxSummaryRunes = 500

// Compile renders the gathered context as the prompt context handed to the
// generator.
func Compile(g Gathered, req Request, customInstructions string) string {
	var b strings.Builder

	b.WriteString("## Email thread\n")
	fmt.Fprintf(&b, "Subject: %s\n", orNone(g.Thread.Subject))
	fmt.Fprintf(&b, "Thread ID: %s\n", g.Thread.ThreadID)
	if g.Thread.PrimaryRecipient != "" {
		fmt.Fprintf(&b, "Reply to: %s\n", g.Thread.PrimaryRecipient)
	}
	for i, m := range g.Thread.Messages {
		direction := "sent"
		if m.Inbound {
			direction = "received"
		}
		fmt.Fprintf(&b, "\n[%d] %s | From: %s | To: %s", i+1, direction, m.From, strings.Join(m.To, ", "))
		if !m.Date.IsZero() {
			fmt.Fprintf(&b, " | Date: %s", m.Date.Format(time.RFC1123Z))
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(m.Snippet))
		b.WriteString("\n")
	}

	if !g.History.Empty() {
		fmt.Fprintf(&b, "\n## Prior correspondence with %s (%d messages)\n", g.History.Address, g.History.MessageCount)
		b.WriteString(strings.TrimSpace(g.History.Text))
		b.WriteString("\n")
	}

	if len(g.Knowledge) > 0 {
		b.WriteString("\n## Reference knowledge\n")
		for _, k := range g.Knowledge {
			fmt.Fprintf(&b, "- [%s] %s\n  %s\n", k.Category, k.Question, k.Answer)
		}
	}

	if tp := strings.TrimSpace(req.TalkingPoints); tp != "" {
		b.WriteString("\n## Talking points\n")
		b.WriteString(tp)
		b.WriteString("\n")
	}

	if ci := strings.TrimSpace(customInstructions); ci != "" {
		b.WriteString("\n## Custom instructions\n")
		b.WriteString(ci)
		b.WriteString("\n")
	}

	return b.String()
}

// Summarize builds the short human readable context summary kept with a
// staged draft.
func Summarize(g Gathered) string {
	var parts []string

	if n := len(g.Thread.Messages); n > 0 {
		last := g.Thread.Messages[n-1]
		parts = append(parts, fmt.Sprintf("Thread %q with %d message(s); latest from %s: %s",
			g.Thread.Subject, n, last.From, strings.TrimSpace(last.Snippet)))
	} else {
		parts = append(parts, fmt.Sprintf("Thread %q", g.Thread.Subject))
	}
	if !g.History.Empty() {
		parts = append(parts, fmt.Sprintf("%d prior message(s) with %s", g.History.MessageCount, g.History.Address))
	}
	if len(g.Knowledge) > 0 {
		topics := make([]string, 0, len(g.Knowledge))
		for _, k := range g.Knowledge {
			topics = append(topics, k.Category)
		}
		parts = append(parts, "Knowledge: "+strings.Join(topics, ", "))
	}

	return Truncate(strings.Join(parts, ". "), MaxSummaryRunes)
}

// Truncate cuts s to max runes and appends "..." when anything was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

func orNone(s string) string {
	if s == "" {
		return "(no subject)"
	}
	return s
}
