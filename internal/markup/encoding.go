// File: internal/markup/encoding.go
package markup

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// Encoding is the small closed set of character encodings the resolver
// distinguishes. Anything else normalizes to Unknown and is settled by the
// byte heuristic.
type Encoding uint8

const (
	EncodingUnknown Encoding = iota
	EncodingUTF8
	EncodingWindows1252
)

// String returns the canonical charset label.
func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingWindows1252:
		return "windows-1252"
	default:
		return "unknown"
	}
}

// NormalizeCharset maps a charset token or a full content-type value to one
// of the known encodings by substring match on the lowercase form.
func NormalizeCharset(s string) Encoding {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "utf-8"), strings.Contains(s, "utf8"):
		return EncodingUTF8
	case strings.Contains(s, "windows-1252"),
		strings.Contains(s, "iso-8859-1"),
		strings.Contains(s, "iso-8859-15"),
		strings.Contains(s, "latin1"):
		return EncodingWindows1252
	default:
		return EncodingUnknown
	}
}

// encodingFromXMLDecl pulls the encoding pseudo-attribute out of an
// <?xml ...?> declaration body.
func encodingFromXMLDecl(decl string) Encoding {
	lower := strings.ToLower(decl)
	i := strings.Index(lower, "encoding")
	if i < 0 {
		return EncodingUnknown
	}
	rest := lower[i+len("encoding"):]
	if j := strings.IndexAny(rest, "\"'"); j >= 0 {
		quote := rest[j]
		rest = rest[j+1:]
		if k := strings.IndexByte(rest, quote); k >= 0 {
			rest = rest[:k]
		}
	}
	return NormalizeCharset(rest)
}

// resolveDeclared runs the fill-in cascade over the three declared signals.
// Any Unknown input inherits the first known value among header, XML
// declaration, and meta, in that priority order. The second result reports
// whether all three then agree on a known encoding; if not, the caller must
// fall back to the byte heuristic.
func resolveDeclared(header, xmlDecl, meta Encoding) (Encoding, bool) {
	first := EncodingUnknown
	for _, e := range []Encoding{header, xmlDecl, meta} {
		if e != EncodingUnknown {
			first = e
			break
		}
	}
	if first == EncodingUnknown {
		return EncodingUnknown, false
	}
	if header == EncodingUnknown {
		header = first
	}
	if xmlDecl == EncodingUnknown {
		xmlDecl = first
	}
	if meta == EncodingUnknown {
		meta = first
	}
	if header == xmlDecl && xmlDecl == meta {
		return header, true
	}
	return EncodingUnknown, false
}

// byteTally accumulates the incremental UTF-8 plausibility counts. ASCII
// bytes count toward neither side; a complete multi-byte sequence is good,
// a broken lead or stray continuation byte is bad.
type byteTally struct {
	good int
	bad  int
}

func (t *byteTally) scan(s string) {
	for i := 0; i < len(s); {
		b := s[i]
		if b < 0x80 {
			i++
			continue
		}
		n := 0
		switch {
		case b&0xe0 == 0xc0:
			n = 1
		case b&0xf0 == 0xe0:
			n = 2
		case b&0xf8 == 0xf0:
			n = 3
		default:
			// Stray continuation or invalid lead byte.
			t.bad++
			i++
			continue
		}
		ok := i+n < len(s)
		if ok {
			for j := 1; j <= n; j++ {
				if s[i+j]&0xc0 != 0x80 {
					ok = false
					break
				}
			}
		}
		if ok {
			t.good += n + 1
			i += n + 1
		} else {
			t.bad++
			i++
		}
	}
}

// tripped reports whether the accumulated evidence rules UTF-8 out.
func (t *byteTally) tripped() bool { return t.good < 10*t.bad }

// detectByHeuristic walks every Text value and every attribute name and
// value in document order, stopping at the first node whose bytes trip the
// fallback.
func (d *Document) detectByHeuristic() Encoding {
	var t byteTally
	for id := nodeID(0); id != nilNode; id = d.nodes[id].next {
		r := &d.nodes[id]
		switch r.kind {
		case KindText:
			t.scan(r.value)
		case KindOpen:
			for at := r.attrs; at != nilNode; at = d.nodes[at].next {
				t.scan(d.nodes[at].value)
				if v := d.nodes[at].reverse; v != nilNode {
					t.scan(d.nodes[v].value)
				}
			}
		}
		if t.bad > 0 && t.tripped() {
			return EncodingWindows1252
		}
	}
	return EncodingUTF8
}

// metaContentTypeQuery is the one fixed structural query the resolver needs:
// the content attribute of an http-equiv content-type meta element. The
// attribute value keeps its source casing, so both common spellings match.
const metaContentTypeQuery = "//meta[@http-equiv='content-type' or @http-equiv='Content-Type']/@content"

// EncodingOptions selects what the conversion pass applies after the final
// encoding is fixed.
type EncodingOptions struct {
	// ConvertEntities decodes named and numeric character references in
	// text, comment, and processing-instruction values.
	ConvertEntities bool
	// TrimText re-trims converted values, since substitutions can introduce
	// new boundary whitespace.
	TrimText bool
}

// ResolveEncoding determines the document encoding from the transport-level
// charset hint, the in-document meta declaration, and the XML-declaration
// encoding captured during parsing, falling back to the byte heuristic when
// the declared signals disagree. It then converts the tree in place.
func (d *Document) ResolveEncoding(headerHint string, xmlDecl Encoding, opts EncodingOptions, log *zap.Logger) Encoding {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("encoding")

	header := NormalizeCharset(headerHint)
	meta := NormalizeCharset(EvaluateSingleString(metaContentTypeQuery, d.Root()))

	enc, agreed := resolveDeclared(header, xmlDecl, meta)
	if !agreed {
		enc = d.detectByHeuristic()
		log.Debug("declared encoding signals inconclusive, used byte heuristic",
			zap.Stringer("header", header),
			zap.Stringer("xmlDecl", xmlDecl),
			zap.Stringer("meta", meta),
			zap.Stringer("detected", enc))
	}

	d.applyEncoding(enc, opts)
	return enc
}

// SetEncoding forces an encoding and reruns the conversion pass.
func (d *Document) SetEncoding(enc Encoding, opts EncodingOptions) {
	d.applyEncoding(enc, opts)
}

// applyEncoding converts every Text, Comment, and ProcessingInstruction
// value and every attribute name and value from the prior byte encoding to
// UTF-8 representation, then applies entity substitution and trimming as
// configured. Running it again on an already-converted tree is a no-op:
// valid UTF-8 input is never reinterpreted.
func (d *Document) applyEncoding(enc Encoding, opts EncodingOptions) {
	d.encoding = enc
	for id := range d.nodes {
		r := &d.nodes[id]
		switch r.kind {
		case KindText:
			r.value = convertValue(r.value, enc, opts.ConvertEntities, opts.TrimText)
		case KindComment, KindProcessingInstruction:
			r.value = convertValue(r.value, enc, opts.ConvertEntities, false)
		case KindAttributeName:
			// The tokenizer already decodes references inside attributes;
			// only the byte re-encoding applies here.
			r.value = convertValue(r.value, enc, false, false)
		case KindAttributeValue:
			r.value = convertValue(r.value, enc, false, false)
		}
	}
}

func convertValue(s string, enc Encoding, entities, trim bool) string {
	if enc == EncodingWindows1252 && !utf8.ValidString(s) {
		if out, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
			s = out
		}
	}
	if entities && strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	if trim {
		s = strings.TrimSpace(s)
	}
	return s
}
