package tool

import (
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
)

// EmailAddress represents an email address with optional display name.
type EmailAddress struct {
	Name  string `json:"name,omitempty" jsonschema:"the display name"`
	Email string `json:"email" jsonschema:"the email address"`
}

// MessageSummary contains essential message metadata.
type MessageSummary struct {
	ID        string         `json:"id" jsonschema:"message ID"`
	ThreadID  string         `json:"thread_id" jsonschema:"thread ID"`
	Timestamp string         `json:"timestamp" jsonschema:"message timestamp"`
	From      EmailAddress   `json:"from" jsonschema:"sender information"`
	To        []EmailAddress `json:"to,omitempty" jsonschema:"recipients"`
	CC        []EmailAddress `json:"cc,omitempty" jsonschema:"CC recipients"`
	Subject   string         `json:"subject" jsonschema:"email subject"`
	Snippet   string         `json:"snippet" jsonschema:"message preview"`
}

func extractMessageSummary(msg *gmail.Message) MessageSummary {
	summary := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload == nil {
		return summary
	}

	headers := msg.Payload.Headers
	summary.From = toEmailAddress(format.ParseAddress(format.HeaderValue(headers, "From")))
	summary.To = toEmailAddresses(format.ParseAddressList(format.HeaderValue(headers, "To")))
	summary.CC = toEmailAddresses(format.ParseAddressList(format.HeaderValue(headers, "Cc")))
	summary.Subject = format.HeaderValue(headers, "Subject")
	summary.Timestamp = format.HeaderValue(headers, "Date")

	return summary
}

func toEmailAddress(a format.Address) EmailAddress {
	return EmailAddress{Name: a.Name, Email: a.Email}
}

func toEmailAddresses(list []format.Address) []EmailAddress {
	if len(list) == 0 {
		return nil
	}
	out := make([]EmailAddress, 0, len(list))
	for _, a := range list {
		out = append(out, toEmailAddress(a))
	}
	return out
}

func normalizeMaxResults(maxResults int64) int64 {
	if maxResults <= 0 {
		return 10
	}
	if maxResults > 50 {
		return 50
	}
	return maxResults
}
