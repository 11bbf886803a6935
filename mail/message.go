// Package mail models the decoded statement mails the extractor consumes: a
// message header plus a MIME-like part tree. Transport (IMAP, auth, search)
// stays outside; messages enter either as .eml files or as already-decoded
// part trees built by a mail-fetching collaborator.
package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"os"
	"path/filepath"
	"strings"
)

// Part is one node of a message's content tree. Payload holds the body bytes
// with the transfer encoding already undone; charset decoding is left to the
// body normalizer so its fallback chain stays in one place.
type Part struct {
	ContentType string
	Charset     string
	Attachment  bool
	Payload     []byte
	Subparts    []Part
}

// Message is a decoded mail as the core consumes it.
type Message struct {
	UID     string
	Subject string
	Sender  string
	Date    string
	Part    Part
}

type headerGetter interface {
	Get(key string) string
}

// ReadMessage parses a raw RFC 822 message into a Message. The caller is
// responsible for assigning a stable UID.
func ReadMessage(r io.Reader) (*Message, error) {
	m, err := netmail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	msg := &Message{
		Subject: decodeHeader(m.Header.Get("Subject")),
		Sender:  decodeHeader(m.Header.Get("From")),
		Date:    m.Header.Get("Date"),
	}

	part, err := readPart(m.Header, m.Body)
	if err != nil {
		return nil, err
	}
	msg.Part = *part

	return msg, nil
}

// ReadFile parses a .eml file. The file name (without extension) becomes the
// message UID, the same way statement sources are named after their file.
func ReadFile(path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open message file: %w", err)
	}
	defer f.Close()

	msg, err := ReadMessage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	msg.UID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return msg, nil
}

func readPart(header headerGetter, body io.Reader) (*Part, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	part := &Part{
		ContentType: mediaType,
		Charset:     params["charset"],
		Attachment:  strings.Contains(strings.ToLower(header.Get("Content-Disposition")), "attachment"),
	}

	if strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "" {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// Keep whatever subparts were readable.
				break
			}
			child, err := readPart(p.Header, decodeTransfer(p.Header.Get("Content-Transfer-Encoding"), p))
			if err != nil {
				continue
			}
			part.Subparts = append(part.Subparts, *child)
		}
		return part, nil
	}

	payload, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return nil, fmt.Errorf("read part body: %w", err)
	}
	part.Payload = payload

	return part, nil
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// multipart.Part already strips quoted-printable, so that branch only fires
// for top-level bodies.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newWhitespaceStripper(r))
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newWhitespaceStripper drops CR/LF from base64 bodies before decoding.
func newWhitespaceStripper(r io.Reader) io.Reader {
	b, err := io.ReadAll(r)
	if err != nil {
		return bytes.NewReader(nil)
	}
	cleaned := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\r' || c == '\n' || c == ' ' || c == '\t' {
			continue
		}
		cleaned = append(cleaned, c)
	}
	return bytes.NewReader(cleaned)
}

// decodeHeader resolves MIME encoded-words using the same charset fallback
// the body normalizer applies.
func decodeHeader(s string) string {
	dec := mime.WordDecoder{
		CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
			b, err := io.ReadAll(input)
			if err != nil {
				return nil, err
			}
			decoded, ok := decodeCharset(b, charset)
			if !ok {
				return nil, fmt.Errorf("unsupported charset %q", charset)
			}
			return strings.NewReader(decoded), nil
		},
	}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
