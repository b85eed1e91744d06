package gather

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

var (
	addressRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	topicRe   = regexp.MustCompile(`(?i)(?:\b(?:about|regarding)\b|\bre:)\s*(.+)`)
)

// Common filler words dropped from subject terms.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"for": {}, "in": {}, "on": {}, "with": {}, "my": {}, "our": {}, "their": {},
	"his": {}, "her": {}, "is": {}, "it": {}, "that": {}, "this": {},
}

// Addresses returns the distinct email addresses mentioned in text, lowercased,
// in order of appearance.
func Addresses(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range addressRe.FindAllString(text, -1) {
		a := strings.ToLower(strings.TrimRight(m, "."))
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Topic returns the text following "about", "regarding" or "re:" in text,
// or "" when none of them occurs.
func Topic(text string) string {
	m := topicRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	topic := addressRe.ReplaceAllString(m[1], "")
	return strings.Trim(strings.TrimSpace(topic), ".,;:!?\"'")
}

// TopicTerms splits a topic into lowercased search terms without filler words.
func TopicTerms(topic string) []string {
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !(r == '-' || r == '_' || r == '$' || r == '\'' ||
			(r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127)
	}) {
		if _, ok := stopWords[f]; ok || len(f) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// SearchQuery builds a Gmail search query from free-form instructions.
func SearchQuery(instructions string) string {
	var parts []string

	addrs := Addresses(instructions)
	if len(addrs) > 0 {
		clauses := make([]string, 0, len(addrs))
		for _, a := range addrs {
			clauses = append(clauses, "from:"+a+" OR to:"+a)
		}
		if len(clauses) == 1 {
			parts = append(parts, clauses[0])
		} else {
			parts = append(parts, "{"+strings.Join(clauses, " ")+"}")
		}
	}

	if terms := TopicTerms(Topic(instructions)); len(terms) > 0 {
		subject := "subject:" + terms[0]
		if len(terms) > 1 {
			subject = "subject:(" + strings.Join(terms, " ") + ")"
		}
		parts = append(parts, subject)
	}

	if len(parts) == 0 {
		return strings.TrimSpace(instructions)
	}
	return strings.Join(parts, " ")
}

// KnowledgeTopic picks the phrase used to look up reference knowledge.
func KnowledgeTopic(req Request) string {
	if t := Topic(req.Instructions); t != "" {
		return t
	}
	if tp := strings.TrimSpace(req.TalkingPoints); tp != "" {
		return tp
	}
	return strings.TrimSpace(req.Instructions)
}

type scored struct {
	candidate reply.ThreadCandidate
	score     int
}

// Rank scores candidates against the addresses and topic terms of the
// instructions. It returns the single best candidate, or every candidate tied
// at the top score when there is no unique winner.
func Rank(candidates []reply.ThreadCandidate, instructions string) (reply.ThreadCandidate, []reply.ThreadCandidate) {
	if len(candidates) == 0 {
		return reply.ThreadCandidate{}, nil
	}

	addrs := Addresses(instructions)
	terms := TopicTerms(Topic(instructions))

	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		all = append(all, scored{candidate: c, score: score(c, addrs, terms)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if len(all) == 1 || all[0].score > all[1].score {
		return all[0].candidate, nil
	}

	var tied []reply.ThreadCandidate
	for _, s := range all {
		if s.score != all[0].score {
			break
		}
		tied = append(tied, s.candidate)
	}
	return reply.ThreadCandidate{}, tied
}

func score(c reply.ThreadCandidate, addrs, terms []string) int {
	n := 0
	for _, a := range addrs {
		for _, p := range c.Participants {
			if strings.Contains(strings.ToLower(p), a) {
				n++
				break
			}
		}
	}
	subject := strings.ToLower(c.Subject)
	for _, t := range terms {
		if strings.Contains(subject, t) {
			n++
		}
	}
	return n
}
