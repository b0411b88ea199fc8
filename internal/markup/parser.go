// File: internal/markup/parser.go

// Package markup builds navigable, document-order trees out of HTML or XML
// byte streams, tolerating malformed input the way browsers do, and settles
// the document character encoding after the fact from transport, XML
// declaration, and meta signals.
package markup

import (
	"bytes"
	"io"

	"go.uber.org/zap"
)

// Mode selects how structural anomalies are treated.
type Mode int

const (
	// ModeHTML never fails on structural problems; mismatched, unclosed,
	// and stray tags are repaired heuristically.
	ModeHTML Mode = iota
	// ModeStrict surfaces every structural mismatch as a fatal parse error.
	ModeStrict
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Options are the fixed choices a caller makes when constructing a Parser.
type Options struct {
	Mode Mode
	// TrimText trims surrounding whitespace off text nodes and drops the
	// ones that end up empty. Default on.
	TrimText bool
	// KeepComments retains comment nodes. Default off.
	KeepComments bool
	// KeepPIs retains processing instructions other than the XML
	// declaration. Default off.
	KeepPIs bool
	// DetectEncoding runs the encoding resolver after the parse. Default on.
	DetectEncoding bool
	// ConvertEntities decodes character references during the encoding
	// conversion pass. Default on.
	ConvertEntities bool
	// Charset is the transport-level charset hint, typically the
	// Content-Type header value of the response the bytes came from.
	Charset string
	// Namespaces is the global prefix->URI table consulted when no
	// declaration in document scope matches.
	Namespaces map[string]string

	Logger *zap.Logger
}

// DefaultOptions returns the options a plain HTML-recovery parse uses.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeHTML,
		TrimText:        true,
		DetectEncoding:  true,
		ConvertEntities: true,
	}
}

// Parser converts byte streams into Documents. A Parser is cheap and carries
// only configuration; each parse produces an independently owned Document.
type Parser struct {
	opts Options
	log  *zap.Logger
}

// New creates a Parser with the given options.
func New(opts Options) *Parser {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{opts: opts, log: log}
}

// ParseBytes builds a tree from data. Under ModeStrict a structural error
// aborts the parse; under ModeHTML the result is always a best-effort tree.
func (p *Parser) ParseBytes(data []byte) (*Document, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		if p.opts.Mode == ModeStrict {
			return nil, structural(0, "", "byte order mark is not supported")
		}
		data = data[len(utf8BOM):]
	}

	b := newTreeBuilder(p.opts)
	if err := driveTokens(data, b); err != nil {
		return nil, err
	}
	if err := b.finish(len(data)); err != nil {
		return nil, err
	}

	doc := b.doc
	if p.opts.DetectEncoding {
		doc.ResolveEncoding(p.opts.Charset, b.xmlEncoding, EncodingOptions{
			ConvertEntities: p.opts.ConvertEntities,
			TrimText:        p.opts.TrimText,
		}, p.log)
	}
	return doc, nil
}

// ParseString builds a tree from s.
func (p *Parser) ParseString(s string) (*Document, error) {
	return p.ParseBytes([]byte(s))
}

// ParseReader reads r to the end and builds a tree from the contents. The
// read happens up front; the build itself performs no I/O.
func (p *Parser) ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(data)
}
