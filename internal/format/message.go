package format

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// MessageBodies returns the first text/plain and text/html bodies found in
// payload, searching nested parts depth first.
func MessageBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	if payload == nil {
		return "", ""
	}

	textBody, htmlBody = bodyFromPart(payload)

	for _, part := range payload.Parts {
		partText, partHTML := bodyFromPart(part)

		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}

		if len(part.Parts) > 0 {
			nestedText, nestedHTML := MessageBodies(part)
			if textBody == "" {
				textBody = nestedText
			}
			if htmlBody == "" {
				htmlBody = nestedHTML
			}
		}
	}

	return textBody, htmlBody
}

// BodyText returns the plain text body of payload, rendering the HTML body
// when the message has no text part.
func BodyText(payload *gmail.MessagePart) string {
	textBody, htmlBody := MessageBodies(payload)
	if textBody != "" {
		return strings.TrimSpace(textBody)
	}
	if htmlBody != "" {
		return HTMLToText([]byte(htmlBody))
	}
	return ""
}

func bodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return DecodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", DecodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

// DecodeBase64URL decodes Gmail body data, padded or not. Undecodable data is
// returned as is.
func DecodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}

// HeaderValue returns the decoded value of the first header called name,
// compared case-insensitively.
func HeaderValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			if decoded, err := DecodeHeader(h.Value); err == nil {
				return decoded
			}
			return h.Value
		}
	}
	return ""
}
