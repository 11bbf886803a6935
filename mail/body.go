package mail

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var tagRegex = regexp.MustCompile(`<[^>]+>`)

// fallbackEncodings is tried, in order, when a part carries no charset or its
// declared charset fails to decode cleanly.
var fallbackEncodings = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
}

// Body flattens a message into a single scannable plain-text string. It walks
// all parts in order, skips attachments, strips markup from HTML parts and
// decodes HTML entities so that currency glyphs appear literally. The second
// return is false when not a single part decoded; callers treat that as "no
// extraction possible", never as a fatal condition.
func Body(msg *Message) (string, bool) {
	var b strings.Builder
	decoded := false

	walk(&msg.Part, func(p *Part) {
		if p.Attachment || !strings.HasPrefix(p.ContentType, "text/") {
			return
		}
		text, ok := decodeCharset(p.Payload, p.Charset)
		if !ok {
			return
		}
		if strings.Contains(p.ContentType, "html") {
			text = tagRegex.ReplaceAllString(text, " ")
		}
		b.WriteString(decodeEntities(text))
		decoded = true
	})

	if !decoded {
		return "", false
	}
	return b.String(), true
}

func walk(p *Part, fn func(*Part)) {
	if len(p.Subparts) == 0 {
		fn(p)
		return
	}
	for i := range p.Subparts {
		walk(&p.Subparts[i], fn)
	}
}

// decodeCharset decodes raw part bytes into a string. The declared charset is
// honoured first; on failure the bytes are retried as UTF-8, then GBK, then
// GB18030. A decode that produces replacement runes counts as a failure.
func decodeCharset(b []byte, charset string) (string, bool) {
	if len(b) == 0 {
		return "", false
	}

	if charset != "" {
		if enc, err := htmlindex.Get(charset); err == nil {
			if s, ok := tryDecode(enc, b); ok {
				return s, true
			}
		}
	}

	if utf8.Valid(b) {
		return string(b), true
	}
	for _, enc := range fallbackEncodings {
		if s, ok := tryDecode(enc, b); ok {
			return s, true
		}
	}

	return "", false
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// decodeEntities turns HTML entities into their literal characters and
// normalizes non-breaking spaces, so &yen;&nbsp;18.50 scans as "¥ 18.50".
func decodeEntities(s string) string {
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, " ", " ")
}
