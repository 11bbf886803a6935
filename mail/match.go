package mail

import "strings"

// Matcher is the loose sender/subject heuristic used to pick statement mails
// out of a mailbox or directory. It deliberately over-matches; the extractor
// downstream decides whether a matched mail actually carries bill data.
type Matcher struct {
	SenderKeywords  []string
	SubjectKeywords []string
}

// Match reports whether either the sender or the subject contains any of the
// configured keywords, case-insensitively.
func (m Matcher) Match(msg *Message) bool {
	sender := strings.ToLower(msg.Sender)
	subject := strings.ToLower(msg.Subject)

	for _, kw := range m.SenderKeywords {
		if strings.Contains(sender, strings.ToLower(kw)) {
			return true
		}
	}
	for _, kw := range m.SubjectKeywords {
		if strings.Contains(subject, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
