// File: internal/markup/mutate.go
package markup

import "fmt"

// NewElement creates a detached element (a paired Open/Close chain) in the
// document arena, ready to be spliced in with InsertAfter, AddChild, or
// InsertSurrounding.
func (d *Document) NewElement(name string) Node {
	open := d.alloc(KindOpen, name, 0)
	close := d.alloc(KindClose, name, 0)
	d.nodes[open].next = close
	d.nodes[close].prev = open
	d.nodes[open].reverse = close
	d.nodes[close].reverse = open
	return Node{doc: d, id: open}
}

// NewText creates a detached text node in the document arena.
func (d *Document) NewText(value string) Node {
	return Node{doc: d, id: d.alloc(KindText, value, 0)}
}

// SetAttribute appends an attribute to an Open node's side chain, or
// replaces the value of an existing attribute of that name.
func (n Node) SetAttribute(name, value string) {
	if n.IsZero() || n.rec().kind != KindOpen {
		panic(fmt.Sprintf("markup: SetAttribute on %v node", n.Kind()))
	}
	d := n.doc
	for at := n.FirstAttribute(); !at.IsZero(); at = at.NextAttribute() {
		if at.Value() == name {
			d.nodes[at.rec().reverse].value = value
			return
		}
	}
	nameID := d.alloc(KindAttributeName, name, n.Offset())
	valID := d.alloc(KindAttributeValue, value, n.Offset())
	d.nodes[nameID].reverse = valID
	d.nodes[valID].reverse = nameID
	d.nodes[nameID].parent = n.id
	d.nodes[valID].parent = n.id
	if head := n.rec().attrs; head == nilNode {
		n.rec().attrs = nameID
	} else {
		last := head
		for d.nodes[last].next != nilNode {
			last = d.nodes[last].next
		}
		d.nodes[last].next = nameID
		d.nodes[nameID].prev = last
	}
}

// subtreeEnd returns the last sequence node belonging to n: the Close for a
// paired Open, n itself otherwise.
func (n Node) subtreeEnd() nodeID {
	r := n.rec()
	if r.kind == KindOpen && r.reverse != nilNode {
		return r.reverse
	}
	return n.id
}

// CloneDeep copies the subtree rooted at n, its attribute chains included,
// into the same arena and returns the detached copy. Only Open, Text,
// Comment, and ProcessingInstruction nodes can be cloned; cloning a Close or
// attribute node is a programming error.
func (n Node) CloneDeep() Node {
	if n.IsZero() {
		return Node{}
	}
	switch n.rec().kind {
	case KindOpen, KindText, KindComment, KindProcessingInstruction:
	default:
		panic(fmt.Sprintf("markup: CloneDeep on %v node", n.Kind()))
	}

	d := n.doc
	end := n.subtreeEnd()
	mapping := map[nodeID]nodeID{nilNode: nilNode}

	// First pass: copy records for the span n..end and their attributes.
	var order []nodeID
	for id := n.id; ; id = d.nodes[id].next {
		src := d.nodes[id]
		cp := d.alloc(src.kind, src.value, src.offset)
		d.nodes[cp].namespace = src.namespace
		mapping[id] = cp
		order = append(order, id)
		for at := src.attrs; at != nilNode; at = d.nodes[at].next {
			atRec := d.nodes[at]
			atCp := d.alloc(atRec.kind, atRec.value, atRec.offset)
			valCp := d.alloc(KindAttributeValue, d.nodes[atRec.reverse].value, d.nodes[atRec.reverse].offset)
			d.nodes[atCp].namespace = atRec.namespace
			d.nodes[atCp].reverse = valCp
			d.nodes[valCp].reverse = atCp
			d.nodes[atCp].parent = cp
			d.nodes[valCp].parent = cp
			mapping[at] = atCp
			if d.nodes[cp].attrs == nilNode {
				d.nodes[cp].attrs = atCp
			} else {
				last := d.nodes[cp].attrs
				for d.nodes[last].next != nilNode {
					last = d.nodes[last].next
				}
				d.nodes[last].next = atCp
				d.nodes[atCp].prev = last
			}
		}
		if id == end {
			break
		}
	}

	// Second pass: rewire sequence, reverse, and parent links inside the
	// copied span. Links that escape the span become detached.
	for i, id := range order {
		src := d.nodes[id]
		cp := mapping[id]
		if i > 0 {
			d.nodes[cp].prev = mapping[order[i-1]]
		}
		if i < len(order)-1 {
			d.nodes[cp].next = mapping[order[i+1]]
		}
		if rv, ok := mapping[src.reverse]; ok {
			d.nodes[cp].reverse = rv
		}
		if p, ok := mapping[src.parent]; ok {
			d.nodes[cp].parent = p
		}
	}
	return Node{doc: d, id: mapping[n.id]}
}

// InsertAfter splices the detached node m (with its whole subtree) into the
// sequence directly after n's subtree, as n's next sibling.
func (n Node) InsertAfter(m Node) {
	if n.IsZero() || m.IsZero() {
		return
	}
	d := n.doc
	d.linkAfter(n.subtreeEnd(), m.id, m.subtreeEnd())
	parent := n.rec().parent
	d.nodes[m.id].parent = parent
	if end := m.rec().reverse; end != nilNode {
		d.nodes[end].parent = parent
	}
}

// AddChild appends the detached node m as the last child of the Open node n.
func (n Node) AddChild(m Node) {
	if n.IsZero() || m.IsZero() {
		return
	}
	if n.rec().kind != KindOpen {
		panic(fmt.Sprintf("markup: AddChild on %v node", n.Kind()))
	}
	d := n.doc
	var pos nodeID
	if close := n.rec().reverse; close != nilNode {
		pos = d.nodes[close].prev
	} else {
		// Document root: append at the end of the sequence.
		pos = n.id
		for d.nodes[pos].next != nilNode {
			pos = d.nodes[pos].next
		}
	}
	d.linkAfter(pos, m.id, m.subtreeEnd())
	d.nodes[m.id].parent = n.id
	if end := m.rec().reverse; end != nilNode {
		d.nodes[end].parent = n.id
	}
}

// InsertSurrounding wraps n (with its whole subtree) in the detached empty
// element wrap: wrap's Open lands before n, its Close after n, and n is
// reparented into it.
func (n Node) InsertSurrounding(wrap Node) {
	if n.IsZero() || wrap.IsZero() {
		return
	}
	if wrap.rec().kind != KindOpen || wrap.rec().reverse == nilNode {
		panic(fmt.Sprintf("markup: InsertSurrounding with %v node", wrap.Kind()))
	}
	d := n.doc
	open, close := wrap.id, wrap.rec().reverse
	end := n.subtreeEnd()
	parent := n.rec().parent
	prev := n.rec().prev

	// Detach the empty wrapper pair, then place its halves around n.
	d.nodes[open].next, d.nodes[close].prev = nilNode, nilNode

	d.nodes[open].prev = prev
	if prev != nilNode {
		d.nodes[prev].next = open
	}
	d.nodes[open].next = n.id
	d.nodes[n.id].prev = open

	succ := d.nodes[end].next
	d.nodes[end].next = close
	d.nodes[close].prev = end
	d.nodes[close].next = succ
	if succ != nilNode {
		d.nodes[succ].prev = close
	}

	d.nodes[open].parent = parent
	d.nodes[close].parent = parent
	d.nodes[n.id].parent = open
	if n.rec().kind == KindOpen && n.rec().reverse != nilNode {
		d.nodes[n.rec().reverse].parent = open
	}
}

// RemoveKeepingChildren unlinks the Open/Close pair of n from the sequence
// and reparents its direct children onto n's parent.
func (n Node) RemoveKeepingChildren() {
	if n.IsZero() {
		return
	}
	r := n.rec()
	if r.kind != KindOpen || r.reverse == nilNode {
		panic(fmt.Sprintf("markup: RemoveKeepingChildren on %v node", n.Kind()))
	}
	d := n.doc
	close := r.reverse
	parent := r.parent
	for id := r.next; id != nilNode && id != close; id = d.nodes[id].next {
		if d.nodes[id].parent == n.id {
			d.nodes[id].parent = parent
		}
	}
	d.unlink(close)
	d.unlink(n.id)
}
