// File: internal/markup/tokenizer.go
package markup

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Attr is a raw attribute as delivered by the tokenizer. Values arrive with
// character references already decoded.
type Attr struct {
	Name  string
	Value string
}

// TokenHandler is the callback contract the tree builder consumes. The
// low-level character scanner is an external collaborator: anything that can
// report tag-open, tag-close, text, comment, and processing-instruction
// events with byte offsets can drive a build.
type TokenHandler interface {
	OpenTag(name string, attrs []Attr, offset int) error
	CloseTag(name string, offset int) error
	Text(data []byte, offset int) error
	Comment(data []byte, offset int) error
	ProcessingInstruction(target, data string, offset int) error
}

// driveTokens feeds h from the x/net/html tokenizer, tracking the byte
// offset of each token by accumulating raw token lengths. Text passes
// through raw so that reference substitution stays under the encoding
// resolver's control.
func driveTokens(data []byte, h TokenHandler) error {
	z := html.NewTokenizer(bytes.NewReader(data))
	offset := 0
	for {
		tt := z.Next()
		raw := z.Raw()
		start := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil

		case html.TextToken:
			if err := h.Text(raw, start); err != nil {
				return err
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			if err := h.OpenTag(name, attrs, start); err != nil {
				return err
			}
			if tt == html.SelfClosingTagToken {
				if err := h.CloseTag(name, start+len(raw)-1); err != nil {
					return err
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if err := h.CloseTag(string(name), start); err != nil {
				return err
			}

		case html.CommentToken:
			text := z.Text()
			// The HTML tokenizer surfaces <?...?> instructions as bogus
			// comments; recover them here so the builder sees real PI
			// events.
			if target, data, ok := splitInstruction(text); ok {
				if err := h.ProcessingInstruction(target, data, start); err != nil {
					return err
				}
				continue
			}
			if err := h.Comment(text, start); err != nil {
				return err
			}

		case html.DoctypeToken:
			// Document type declarations carry nothing the tree needs.
		}
	}
}

func readTag(z *html.Tokenizer) (string, []Attr) {
	name, hasAttr := z.TagName()
	var attrs []Attr
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		attrs = append(attrs, Attr{Name: string(k), Value: string(v)})
	}
	return string(name), attrs
}

// splitInstruction recognizes a bogus comment of the form "?target data?"
// and splits it into the instruction target and body.
func splitInstruction(comment []byte) (target, data string, ok bool) {
	if len(comment) < 2 || comment[0] != '?' {
		return "", "", false
	}
	body := string(comment[1:])
	body = strings.TrimSuffix(body, "?")
	target, data, _ = strings.Cut(body, " ")
	return target, strings.TrimSpace(data), true
}
