// File: internal/markup/node.go
package markup

import (
	"strings"
)

// Kind identifies what a node in the tree represents.
type Kind uint8

const (
	// KindOpen marks the start tag of an element. The document root itself is
	// an Open node with an empty value that is never closed.
	KindOpen Kind = iota
	// KindClose marks the end tag paired with an Open node via Reverse.
	KindClose
	// KindText holds character data between tags.
	KindText
	// KindComment holds the contents of a comment.
	KindComment
	// KindProcessingInstruction holds a processing instruction that the
	// parser was configured to keep.
	KindProcessingInstruction
	// KindAttributeName holds an attribute name. Attribute nodes live on a
	// per-element side chain, never on the main sequence list.
	KindAttributeName
	// KindAttributeValue holds an attribute value, paired with its name node
	// via Reverse.
	KindAttributeValue
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "Open"
	case KindClose:
		return "Close"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindProcessingInstruction:
		return "ProcessingInstruction"
	case KindAttributeName:
		return "AttributeName"
	case KindAttributeValue:
		return "AttributeValue"
	default:
		return "Invalid"
	}
}

// nodeID indexes a node record inside a document's arena. The zero document
// root always occupies index 0.
type nodeID int32

// nilNode is the sentinel "no node" index.
const nilNode nodeID = -1

// record is a single arena slot. Every link is an index into the same arena
// (or into the document's namespace table), so the document owns the whole
// structure and can release it in one go.
type record struct {
	kind   Kind
	value  string
	offset int

	// Sequence list links. Attribute nodes reuse next/prev for their own
	// per-element chain instead.
	next nodeID
	prev nodeID

	// reverse pairs Open<->Close and AttributeName<->AttributeValue.
	reverse nodeID
	// parent is the innermost enclosing Open node at creation time.
	parent nodeID
	// attrs is the head of the attribute chain of an Open node.
	attrs nodeID
	// namespace indexes the document namespace table, or -1.
	namespace int32
}

// Node is a handle to one node of a Document. The zero Node is "no node":
// every accessor on it returns a zero value rather than failing, because
// markup trees are queried speculatively.
type Node struct {
	doc *Document
	id  nodeID
}

// IsZero reports whether the handle refers to no node.
func (n Node) IsZero() bool { return n.doc == nil || n.id < 0 || int(n.id) >= len(n.doc.nodes) }

func (n Node) rec() *record { return &n.doc.nodes[n.id] }

func (n Node) handle(id nodeID) Node {
	if id == nilNode {
		return Node{}
	}
	return Node{doc: n.doc, id: id}
}

// Kind returns the node kind. The zero handle reports an out-of-range kind;
// check IsZero first when the distinction matters.
func (n Node) Kind() Kind {
	if n.IsZero() {
		return Kind(0xff)
	}
	return n.rec().kind
}

// Value returns the tag or attribute name for Open/Close/AttributeName
// nodes, the text for Text/Comment/ProcessingInstruction nodes, and the
// attribute value for AttributeValue nodes.
func (n Node) Value() string {
	if n.IsZero() {
		return ""
	}
	return n.rec().value
}

// Offset returns the byte offset of the node in the source document.
// Offsets impose a total order over all nodes of one document.
func (n Node) Offset() int {
	if n.IsZero() {
		return -1
	}
	return n.rec().offset
}

// Next returns the successor on the raw sequence list.
func (n Node) Next() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.handle(n.rec().next)
}

// Previous returns the predecessor on the raw sequence list.
func (n Node) Previous() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.handle(n.rec().prev)
}

// Reverse returns the paired node: the Close for an Open, the Open for a
// Close, the value for an attribute name.
func (n Node) Reverse() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.handle(n.rec().reverse)
}

// Parent returns the innermost enclosing Open node.
func (n Node) Parent() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.handle(n.rec().parent)
}

// Document returns the owning document, or nil for the zero handle.
func (n Node) Document() *Document { return n.doc }

// NextSibling returns the next node on the same nesting level. For an Open
// node this skips the whole subtree by hopping over its Close. Returns the
// zero Node at the end of the child list.
func (n Node) NextSibling() Node {
	if n.IsZero() {
		return Node{}
	}
	var succ nodeID
	r := n.rec()
	if r.kind == KindOpen && r.reverse != nilNode {
		succ = n.doc.nodes[r.reverse].next
	} else {
		succ = r.next
	}
	if succ == nilNode || n.doc.nodes[succ].kind == KindClose {
		return Node{}
	}
	return n.handle(succ)
}

// PreviousSibling returns the preceding node on the same nesting level,
// hopping over whole subtrees. Returns the zero Node at the start of the
// child list.
func (n Node) PreviousSibling() Node {
	if n.IsZero() {
		return Node{}
	}
	p := n.Previous()
	if p.IsZero() {
		return Node{}
	}
	switch p.Kind() {
	case KindClose:
		// The end of a preceding sibling's subtree; its Open is the sibling.
		return p.Reverse()
	case KindOpen:
		// Directly preceded by the parent's open tag.
		return Node{}
	default:
		return p
	}
}

// FirstChild returns the first child of an Open node, or the zero Node for
// an empty element or any non-Open node.
func (n Node) FirstChild() Node {
	if n.IsZero() || n.rec().kind != KindOpen {
		return Node{}
	}
	r := n.rec()
	if r.next == nilNode || r.next == r.reverse {
		return Node{}
	}
	return n.handle(r.next)
}

// FirstAttribute returns the head of the attribute chain of an Open node.
func (n Node) FirstAttribute() Node {
	if n.IsZero() || n.rec().kind != KindOpen {
		return Node{}
	}
	return n.handle(n.rec().attrs)
}

// NextAttribute steps along the attribute chain from an AttributeName node.
func (n Node) NextAttribute() Node {
	if n.IsZero() || n.rec().kind != KindAttributeName {
		return Node{}
	}
	return n.handle(n.rec().next)
}

// Namespace returns the binding resolved for the node, or the zero binding.
func (n Node) Namespace() NamespaceBinding {
	if n.IsZero() {
		return NamespaceBinding{}
	}
	ix := n.rec().namespace
	if ix < 0 || int(ix) >= len(n.doc.namespaces) {
		return NamespaceBinding{}
	}
	return n.doc.namespaces[ix]
}

// AttributeValue looks up an attribute by name on an Open node. The name may
// be namespace qualified ("prefix:local"); in that case both the local name
// and the resolved prefix of the attribute must match. Returns ok=false when
// absent.
func (n Node) AttributeValue(name string, caseSensitive bool) (string, bool) {
	if n.IsZero() || n.rec().kind != KindOpen {
		return "", false
	}
	wantPrefix, wantLocal, qualified := strings.Cut(name, ":")
	for at := n.FirstAttribute(); !at.IsZero(); at = at.NextAttribute() {
		got := at.Value()
		if equalName(got, name, caseSensitive) {
			return at.Reverse().Value(), true
		}
		if !qualified {
			continue
		}
		_, gotLocal, gotQualified := strings.Cut(got, ":")
		if !gotQualified {
			gotLocal = got
		}
		if equalName(gotLocal, wantLocal, caseSensitive) &&
			equalName(at.Namespace().Prefix, wantPrefix, caseSensitive) {
			return at.Reverse().Value(), true
		}
	}
	return "", false
}

// Attribute returns an attribute value, or the empty string when absent.
func (n Node) Attribute(name string) string {
	v, _ := n.AttributeValue(name, false)
	return v
}

// TextContent concatenates the values of all Text descendants in document
// order, joined by sep. On a Text node it returns the node value itself.
func (n Node) TextContent(sep string) string {
	if n.IsZero() {
		return ""
	}
	r := n.rec()
	if r.kind == KindText {
		return r.value
	}
	if r.kind != KindOpen {
		return ""
	}
	var parts []string
	end := r.reverse
	for id := r.next; id != nilNode && id != end; id = n.doc.nodes[id].next {
		if n.doc.nodes[id].kind == KindText {
			parts = append(parts, n.doc.nodes[id].value)
		}
	}
	return strings.Join(parts, sep)
}

// FindFirst returns the first Open descendant (in document order, the node
// itself included) whose name matches, or the zero Node.
func (n Node) FindFirst(name string) Node {
	if n.IsZero() {
		return Node{}
	}
	end := nilNode
	if n.rec().kind == KindOpen {
		end = n.rec().reverse
	}
	for id := n.id; id != nilNode && id != end; id = n.doc.nodes[id].next {
		r := &n.doc.nodes[id]
		if r.kind == KindOpen && strings.EqualFold(r.value, name) {
			return n.handle(id)
		}
	}
	return Node{}
}

func equalName(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}
