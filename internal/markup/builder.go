// File: internal/markup/builder.go
package markup

import (
	"strings"

	"go.uber.org/zap"
)

// Void elements never retain children from the first pass: opening one arms
// a pending auto-close that fires on the very next token. The set is fixed
// configuration, not a rule to extend.
var voidElements = map[string]bool{
	"meta":  true,
	"br":    true,
	"input": true,
	"frame": true,
	"hr":    true,
	"img":   true,
}

func isVoidElement(name string) bool {
	return voidElements[strings.ToLower(name)]
}

// tagWeight ranks how strongly an open element resists being force-closed
// by a stray closing tag. A close may only synthesize closes for elements
// that do not outweigh it; a stray </b> can therefore never rip open an
// enclosing <table>.
func tagWeight(name string) int {
	switch strings.ToLower(name) {
	case "":
		return 100
	case "body", "html", "div", "table":
		return 5
	case "thead", "tbody", "tfoot", "tr":
		return 4
	case "td", "th", "ul", "ol", "dl", "form", "select":
		return 3
	case "p", "li", "dt", "dd", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return 2
	case "span":
		return 1
	default:
		// Void and light inline tags.
		return -1
	}
}

// treeBuilder turns tokenizer callbacks into the quad-linked node chain.
// It holds the stack of currently open elements, the pending auto-close
// flag, and the running tail of the sequence list.
type treeBuilder struct {
	doc  *Document
	opts Options
	log  *zap.Logger
	ns   *nsScope

	stack   []nodeID // open elements; stack[0] is the document root
	tail    nodeID
	pending bool // auto-close armed for the element on top of the stack

	xmlEncoding Encoding
}

func newTreeBuilder(opts Options) *treeBuilder {
	doc := newDocument()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &treeBuilder{
		doc:         doc,
		opts:        opts,
		log:         log.Named("treebuilder"),
		ns:          newNSScope(doc, opts.Namespaces),
		stack:       []nodeID{0},
		tail:        0,
		xmlEncoding: EncodingUnknown,
	}
}

func (b *treeBuilder) html() bool { return b.opts.Mode == ModeHTML }

func (b *treeBuilder) top() nodeID { return b.stack[len(b.stack)-1] }

// append creates a node at the tail of the sequence list, parented to the
// innermost open element.
func (b *treeBuilder) append(kind Kind, value string, offset int) nodeID {
	id := b.doc.alloc(kind, value, offset)
	b.doc.nodes[b.tail].next = id
	b.doc.nodes[id].prev = b.tail
	b.doc.nodes[id].parent = b.top()
	b.tail = id
	return id
}

// closeTop pops the innermost open element and appends its matching Close
// node, pairing the reverse links and leaving the element's namespace scope.
func (b *treeBuilder) closeTop(offset int) {
	open := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	close := b.append(KindClose, b.doc.nodes[open].value, offset)
	b.doc.nodes[open].reverse = close
	b.doc.nodes[close].reverse = open
	b.ns.leave(open)
}

// resolvePending fires the auto-close armed by a void element before the
// next node is produced.
func (b *treeBuilder) resolvePending(offset int) {
	if !b.pending {
		return
	}
	b.pending = false
	b.closeTop(offset)
}

// OpenTag handles a start tag callback from the tokenizer.
func (b *treeBuilder) OpenTag(name string, attrs []Attr, offset int) error {
	b.resolvePending(offset)

	if b.html() {
		b.repairTable(name, offset)
	}

	id := b.append(KindOpen, name, offset)
	b.stack = append(b.stack, id)

	// Namespace declarations on this element come into scope before any
	// name on it resolves.
	b.ns.declareFromAttrs(attrs, id)
	if err := b.resolveNamespace(id, name, offset); err != nil {
		return err
	}

	attrOffset := offset
	for _, a := range attrs {
		attrOffset++
		nameID := b.doc.alloc(KindAttributeName, a.Name, attrOffset)
		attrOffset++
		valID := b.doc.alloc(KindAttributeValue, a.Value, attrOffset)
		b.doc.nodes[nameID].reverse = valID
		b.doc.nodes[valID].reverse = nameID
		b.doc.nodes[nameID].parent = id
		b.doc.nodes[valID].parent = id
		b.chainAttribute(id, nameID)
		if err := b.resolveAttrNamespace(nameID, a.Name, offset); err != nil {
			return err
		}
	}

	if b.html() && isVoidElement(name) {
		b.pending = true
	}
	return nil
}

// chainAttribute appends an AttributeName node to the element's side chain.
func (b *treeBuilder) chainAttribute(open, nameID nodeID) {
	head := b.doc.nodes[open].attrs
	if head == nilNode {
		b.doc.nodes[open].attrs = nameID
		return
	}
	last := head
	for b.doc.nodes[last].next != nilNode {
		last = b.doc.nodes[last].next
	}
	b.doc.nodes[last].next = nameID
	b.doc.nodes[nameID].prev = last
}

func (b *treeBuilder) resolveNamespace(id nodeID, name string, offset int) error {
	prefix := ""
	if i := strings.IndexByte(name, ':'); i >= 0 {
		prefix = name[:i]
	}
	ix, ok := b.ns.resolve(prefix)
	if !ok {
		if !b.html() {
			return structural(offset, name, "undeclared namespace prefix")
		}
		return nil
	}
	b.doc.nodes[id].namespace = ix
	return nil
}

func (b *treeBuilder) resolveAttrNamespace(id nodeID, name string, offset int) error {
	i := strings.IndexByte(name, ':')
	if i < 0 || strings.HasPrefix(name, "xmlns") {
		// Unprefixed attributes carry no namespace of their own.
		return nil
	}
	ix, ok := b.ns.resolve(name[:i])
	if !ok {
		if !b.html() {
			return structural(offset, name, "undeclared namespace prefix")
		}
		return nil
	}
	b.doc.nodes[id].namespace = ix
	return nil
}

// repairTable mirrors browser behavior for malformed tables: a new td or tr
// implicitly closes a still-open cell or row, unless a tr/table boundary
// intervenes.
func (b *treeBuilder) repairTable(name string, offset int) {
	var closes, stopAt func(string) bool
	switch strings.ToLower(name) {
	case "td", "th":
		closes = func(n string) bool { return n == "td" || n == "th" }
		stopAt = func(n string) bool { return n == "tr" || n == "table" }
	case "tr":
		closes = func(n string) bool { return n == "tr" }
		stopAt = func(n string) bool { return n == "table" }
	default:
		return
	}

	for i := len(b.stack) - 1; i >= 1; i-- {
		open := strings.ToLower(b.doc.nodes[b.stack[i]].value)
		if closes(open) {
			b.log.Debug("table repair: auto-closing open elements",
				zap.String("incoming", name),
				zap.String("closing", open),
				zap.Int("count", len(b.stack)-i),
				zap.Int("offset", offset))
			for len(b.stack) > i {
				b.closeTop(offset)
			}
			return
		}
		if stopAt(open) {
			return
		}
	}
}

// CloseTag handles an end tag callback from the tokenizer.
func (b *treeBuilder) CloseTag(name string, offset int) error {
	b.resolvePending(offset)

	top := b.top()
	if top != 0 {
		topName := b.doc.nodes[top].value
		if (b.html() && strings.EqualFold(topName, name)) || (!b.html() && topName == name) {
			b.closeTop(offset)
			return nil
		}
	}

	if !b.html() {
		if top == 0 {
			return structural(offset, name, "closing tag without matching open tag")
		}
		return structural(offset, name, "closing tag does not match open tag "+b.doc.nodes[top].value)
	}

	// HTML recovery. Void elements never sit on the stack; their implicit
	// close point may instead be moved forward over content that followed.
	if isVoidElement(name) {
		if !b.relocateVoidClose(name, offset) {
			b.log.Debug("dropping stray void closing tag", zap.String("tag", name), zap.Int("offset", offset))
		}
		return nil
	}

	m := -1
	for i := len(b.stack) - 1; i >= 1; i-- {
		if strings.EqualFold(b.doc.nodes[b.stack[i]].value, name) {
			m = i
			break
		}
	}
	if m < 0 {
		b.log.Debug("dropping unmatched closing tag", zap.String("tag", name), zap.Int("offset", offset))
		return nil
	}

	w := tagWeight(name)
	for i := m + 1; i < len(b.stack); i++ {
		if tagWeight(b.doc.nodes[b.stack[i]].value) > w {
			// The stray close is too light to rip open what it would have
			// to close on the way down. Treat it as noise.
			b.log.Debug("ignoring outweighed closing tag",
				zap.String("tag", name),
				zap.String("blockedBy", b.doc.nodes[b.stack[i]].value),
				zap.Int("offset", offset))
			return nil
		}
	}

	for len(b.stack) > m {
		b.closeTop(offset)
	}
	return nil
}

// relocateVoidClose scans backward through the built sequence for the most
// recent void element of this name whose synthetic Close is still its
// immediate successor, and moves that close point forward to the current
// position. Nodes that were appended after the element and parented to its
// parent become its children.
func (b *treeBuilder) relocateVoidClose(name string, offset int) bool {
	depth := 0
	for id := b.tail; id > 0; id = b.doc.nodes[id].prev {
		r := &b.doc.nodes[id]
		switch r.kind {
		case KindClose:
			depth++
		case KindOpen:
			if depth == 0 {
				// Still-open ancestor; keep scanning past it.
				continue
			}
			depth--
			if depth == 0 && strings.EqualFold(r.value, name) && r.next == r.reverse && r.reverse != nilNode {
				b.moveClose(id, offset)
				return true
			}
		}
	}
	return false
}

// moveClose relocates the Close node of open from directly after it to the
// current tail and reparents the nodes in between.
func (b *treeBuilder) moveClose(open nodeID, offset int) {
	c := b.doc.nodes[open].reverse
	if c == b.tail {
		// Nothing between the pair; only the close position changes.
		b.doc.nodes[c].offset = offset
		return
	}
	parent := b.doc.nodes[open].parent
	first := b.doc.nodes[c].next

	// Unlink the close and re-append it at the tail.
	b.doc.nodes[open].next = first
	b.doc.nodes[first].prev = open
	b.doc.nodes[b.tail].next = c
	b.doc.nodes[c].prev = b.tail
	b.doc.nodes[c].next = nilNode
	b.doc.nodes[c].offset = offset
	b.tail = c

	for id := first; id != nilNode && id != c; id = b.doc.nodes[id].next {
		if b.doc.nodes[id].parent == parent {
			b.doc.nodes[id].parent = open
		}
	}
	b.log.Debug("relocated void element close", zap.String("tag", b.doc.nodes[open].value), zap.Int("offset", offset))
}

// Text handles a character data callback.
func (b *treeBuilder) Text(data []byte, offset int) error {
	if !b.html() && len(b.stack) == 1 && !isOnlySpace(string(data)) {
		return structural(offset, "", "text content outside of the document element")
	}
	b.resolvePending(offset)

	s := string(data)
	if b.opts.TrimText {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil
	}
	b.append(KindText, s, offset)
	return nil
}

// Comment handles a comment callback.
func (b *treeBuilder) Comment(data []byte, offset int) error {
	b.resolvePending(offset)
	if !b.opts.KeepComments {
		return nil
	}
	b.append(KindComment, string(data), offset)
	return nil
}

// ProcessingInstruction handles a PI callback. The XML declaration is never
// added to the tree; its encoding pseudo-attribute is held for the resolver.
// Other instructions are kept only when configured, with the raw instruction
// text stored as a synthetic first attribute.
func (b *treeBuilder) ProcessingInstruction(target, data string, offset int) error {
	if strings.EqualFold(target, "xml") {
		b.xmlEncoding = encodingFromXMLDecl(data)
		return nil
	}
	if !b.opts.KeepPIs {
		return nil
	}
	b.resolvePending(offset)
	id := b.append(KindProcessingInstruction, target, offset)
	nameID := b.doc.alloc(KindAttributeName, "", offset+1)
	valID := b.doc.alloc(KindAttributeValue, data, offset+2)
	b.doc.nodes[nameID].reverse = valID
	b.doc.nodes[valID].reverse = nameID
	b.doc.nodes[nameID].parent = id
	b.doc.nodes[valID].parent = id
	b.doc.nodes[id].attrs = nameID
	return nil
}

// finish closes out the parse: unclosed elements are fatal under strict
// parsing and auto-closed under HTML recovery. The document root stays open.
func (b *treeBuilder) finish(offset int) error {
	b.resolvePending(offset)
	if len(b.stack) > 1 {
		if !b.html() {
			return structural(offset, b.doc.nodes[b.top()].value, "unclosed tag at end of input")
		}
		b.log.Debug("auto-closing unclosed elements at end of input", zap.Int("count", len(b.stack)-1))
		for len(b.stack) > 1 {
			b.closeTop(offset)
		}
	}
	return nil
}
