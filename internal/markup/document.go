// File: internal/markup/document.go
package markup

import (
	"github.com/google/uuid"
)

// NamespaceBinding is one prefix->URI association held in the document's
// namespace table. Nodes reference bindings by index; the table is append
// only, so indices stay valid for the document lifetime.
type NamespaceBinding struct {
	Prefix string
	URI    string
}

// Document owns the whole node arena: the sequence list, every attribute
// chain hanging off it, and the namespace table. Discarding the document
// releases all of it at once; individual nodes are never freed while still
// linked into a live chain.
type Document struct {
	nodes      []record
	namespaces []NamespaceBinding

	id       uuid.UUID
	encoding Encoding
}

func newDocument() *Document {
	d := &Document{
		nodes:    make([]record, 0, 64),
		id:       uuid.New(),
		encoding: EncodingUnknown,
	}
	// Slot 0 is the document root: an Open node with an empty value standing
	// in for the file itself. It is never closed.
	d.nodes = append(d.nodes, record{
		kind:      KindOpen,
		offset:    0,
		next:      nilNode,
		prev:      nilNode,
		reverse:   nilNode,
		parent:    nilNode,
		attrs:     nilNode,
		namespace: -1,
	})
	return d
}

// Root returns the document root node.
func (d *Document) Root() Node { return Node{doc: d, id: 0} }

// ID returns the identity assigned to the document at parse time.
func (d *Document) ID() uuid.UUID { return d.id }

// Encoding returns the character encoding the document content is currently
// stored in.
func (d *Document) Encoding() Encoding { return d.encoding }

// NodeCount returns the number of nodes in the arena, the root included.
func (d *Document) NodeCount() int { return len(d.nodes) }

// alloc appends a fresh unlinked record and returns its index.
func (d *Document) alloc(kind Kind, value string, offset int) nodeID {
	id := nodeID(len(d.nodes))
	d.nodes = append(d.nodes, record{
		kind:      kind,
		value:     value,
		offset:    offset,
		next:      nilNode,
		prev:      nilNode,
		reverse:   nilNode,
		parent:    nilNode,
		attrs:     nilNode,
		namespace: -1,
	})
	return id
}

// addNamespace appends a binding to the table and returns its index.
func (d *Document) addNamespace(prefix, uri string) int32 {
	d.namespaces = append(d.namespaces, NamespaceBinding{Prefix: prefix, URI: uri})
	return int32(len(d.namespaces) - 1)
}

// RemoveEmptyTextNodes unlinks every Text node whose value is empty or pure
// whitespace from the sequence list. Entity substitution can leave such
// nodes behind.
func (d *Document) RemoveEmptyTextNodes() {
	for id := nodeID(0); id != nilNode; {
		r := &d.nodes[id]
		next := r.next
		if r.kind == KindText && isOnlySpace(r.value) {
			d.unlink(id)
		}
		id = next
	}
}

// unlink removes a node from the sequence list without touching its subtree
// links. Only safe for leaf kinds (Text, Comment, ProcessingInstruction) or
// from mutation helpers that repair pairing themselves.
func (d *Document) unlink(id nodeID) {
	r := &d.nodes[id]
	if r.prev != nilNode {
		d.nodes[r.prev].next = r.next
	}
	if r.next != nilNode {
		d.nodes[r.next].prev = r.prev
	}
	r.next, r.prev = nilNode, nilNode
}

// linkAfter splices the chain first..last into the sequence list directly
// after pos.
func (d *Document) linkAfter(pos, first, last nodeID) {
	succ := d.nodes[pos].next
	d.nodes[pos].next = first
	d.nodes[first].prev = pos
	d.nodes[last].next = succ
	if succ != nilNode {
		d.nodes[succ].prev = last
	}
}

func isOnlySpace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
