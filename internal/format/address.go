package format

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// ParseAddress parses one From/To style value. Values that are not valid
// RFC 5322 addresses are split on angle brackets as a fallback.
func ParseAddress(raw string) Address {
	if a, err := mail.ParseAddress(raw); err == nil {
		return Address{Name: a.Name, Email: strings.ToLower(a.Address)}
	}

	addr := Address{}
	if idx := strings.Index(raw, "<"); idx != -1 {
		addr.Name = strings.TrimSpace(raw[:idx])
		if endIdx := strings.Index(raw[idx:], ">"); endIdx != -1 {
			addr.Email = strings.TrimSpace(raw[idx+1 : idx+endIdx])
		}
	} else {
		addr.Email = strings.TrimSpace(raw)
	}
	addr.Name = strings.Trim(addr.Name, "\"")
	addr.Email = strings.ToLower(addr.Email)

	return addr
}

// ParseAddressList parses a comma separated header value.
func ParseAddressList(raw string) []Address {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	if list, err := mail.ParseAddressList(raw); err == nil {
		out := make([]Address, 0, len(list))
		for _, a := range list {
			out = append(out, Address{Name: a.Name, Email: strings.ToLower(a.Address)})
		}
		return out
	}

	parts := strings.Split(raw, ",")
	out := make([]Address, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, ParseAddress(trimmed))
		}
	}

	return out
}

// ParseMsgIDList splits a References / In-Reply-To value into bare ids
// without angle brackets.
func ParseMsgIDList(raw string) []string {
	var ids []string
	for _, f := range strings.Fields(raw) {
		id := strings.Trim(f, "<>,")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
