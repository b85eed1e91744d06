package format

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

// ComposeReply renders d as a plain-text RFC 5322 message with threading
// headers, ready for the Gmail drafts API.
func ComposeReply(d reply.OutgoingDraft, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(d.Subject)

	to := make([]*mail.Address, 0, len(d.To))
	for _, addr := range d.To {
		a := ParseAddress(addr)
		to = append(to, &mail.Address{Name: a.Name, Address: a.Email})
	}
	h.SetAddressList("To", to)

	if d.Headers.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{d.Headers.InReplyTo})
	}
	if len(d.Headers.References) > 0 {
		h.SetMsgIDList("References", d.Headers.References)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateSingleInlineWriter failed: %w", err)
	}
	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, fmt.Errorf("w.Write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("w.Close failed: %w", err)
	}

	return buf.Bytes(), nil
}
