package confirm

import (
	"fmt"
	"math"
	"strings"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

const rule = "----------------------------------------"

// Preview renders a staged draft for the user to review before confirming.
func Preview(rec reply.DraftRecord, threadSubject string, warnings []reply.Warning) string {
	var b strings.Builder

	b.WriteString("EMAIL REPLY DRAFT PREVIEW\n")
	b.WriteString(rule + "\n\n")

	fmt.Fprintf(&b, "Thread: %s\n", threadSubject)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(rec.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", rec.Subject)
	fmt.Fprintf(&b, "Thread ID: %s\n\n", rec.ThreadID)

	if rec.ContextSummary != "" {
		fmt.Fprintf(&b, "Context:\n%s\n\n", rec.ContextSummary)
	}

	b.WriteString(rule + "\n")
	b.WriteString("DRAFT MESSAGE:\n\n")
	b.WriteString(rec.Body)
	b.WriteString("\n" + rule + "\n\n")

	if len(warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
	if rec.Confidence == reply.ConfidenceLow {
		b.WriteString("Note: the draft could not be fully parsed, review it carefully before confirming.\n\n")
	}

	b.WriteString("What would you like to do?\n")
	b.WriteString("- To create this draft in Gmail, confirm it with the confirmation id below.\n")
	b.WriteString("- To make changes, describe them and prepare the reply again, or confirm with an edited body.\n")
	b.WriteString("- To discard it, cancel with the confirmation id.\n\n")

	fmt.Fprintf(&b, "Confirmation ID: %s\n", rec.Token)
	fmt.Fprintf(&b, "This draft preview will expire in %d minutes.\n", remainingMinutes(rec))

	return b.String()
}

func remainingMinutes(rec reply.DraftRecord) int {
	return int(math.Ceil(rec.ExpiresAt.Sub(rec.CreatedAt).Minutes()))
}
