// Package format converts mail content between the shapes the assistant needs:
// HTML bodies to plain text, encoded headers to UTF-8, raw address headers to
// structured addresses, and replies to RFC 5322 messages.
package format

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText renders an HTML mail body as plain text. Layout tables are
// flattened into lines, scripts and styles are dropped. Unparseable input is
// returned unchanged.
func HTMLToText(raw []byte) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}

	var b strings.Builder
	writeNodeText(&b, doc)

	return tidyLines(b.String())
}

func writeNodeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeCollapsed(b, n.Data)
		return
	case html.ElementNode:
		if isSkippedElement(n.Data) {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
		if n.Data == "li" {
			b.WriteString("\n- ")
		} else if isBlockElement(n.Data) && n.Data != "tr" {
			b.WriteByte('\n')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(b, c)
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") && c.NextSibling != nil {
			b.WriteByte(' ')
		}
	}

	if n.Type == html.ElementNode {
		if href := attr(n, "href"); n.Data == "a" && href != "" && !strings.HasPrefix(href, "mailto:") {
			b.WriteString(" (" + href + ")")
		}
		if isBlockElement(n.Data) {
			b.WriteByte('\n')
		}
	}
}

func writeCollapsed(b *strings.Builder, s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" && !endsWithSpace(b) {
			b.WriteByte(' ')
		}
		return
	}
	if isSpace(s[0]) && !endsWithSpace(b) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		b.WriteByte(' ')
	}
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s == "" || isSpace(s[len(s)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isSkippedElement(tag string) bool {
	return tag == "script" || tag == "style" || tag == "head" || tag == "title" || tag == "noscript"
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "tr", "table", "ul", "ol", "blockquote", "pre", "section", "article",
		"header", "footer", "h1", "h2", "h3", "h4", "h5", "h6", "hr":
		return true
	}
	return false
}

// tidyLines trims every line and keeps at most one blank line in a row.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
