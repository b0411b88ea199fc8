// File: internal/markup/xpathnav.go
package markup

import (
	"strings"

	"github.com/antchfx/xpath"
)

// treeNavigator adapts the node arena to the xpath.NodeNavigator contract so
// structural queries can run directly against a parsed tree.
type treeNavigator struct {
	root Node
	cur  Node
	attr Node // current AttributeName node, zero when positioned on cur itself
}

func newNavigator(root Node) *treeNavigator {
	return &treeNavigator{root: root, cur: root}
}

func (nav *treeNavigator) NodeType() xpath.NodeType {
	if !nav.attr.IsZero() {
		return xpath.AttributeNode
	}
	switch nav.cur.Kind() {
	case KindOpen:
		if nav.cur.id == nav.root.id && nav.cur.Value() == "" {
			return xpath.RootNode
		}
		return xpath.ElementNode
	case KindText:
		return xpath.TextNode
	default:
		return xpath.CommentNode
	}
}

func (nav *treeNavigator) LocalName() string {
	name := nav.cur.Value()
	if !nav.attr.IsZero() {
		name = nav.attr.Value()
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (nav *treeNavigator) Prefix() string {
	name := nav.cur.Value()
	if !nav.attr.IsZero() {
		name = nav.attr.Value()
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}

func (nav *treeNavigator) Value() string {
	if !nav.attr.IsZero() {
		return nav.attr.Reverse().Value()
	}
	switch nav.cur.Kind() {
	case KindOpen:
		return nav.cur.TextContent("")
	default:
		return nav.cur.Value()
	}
}

func (nav *treeNavigator) Copy() xpath.NodeNavigator {
	clone := *nav
	return &clone
}

func (nav *treeNavigator) MoveToRoot() {
	nav.cur = nav.root
	nav.attr = Node{}
}

func (nav *treeNavigator) MoveToParent() bool {
	if !nav.attr.IsZero() {
		nav.attr = Node{}
		return true
	}
	p := nav.cur.Parent()
	if p.IsZero() {
		return false
	}
	nav.cur = p
	return true
}

func (nav *treeNavigator) MoveToNextAttribute() bool {
	var next Node
	if nav.attr.IsZero() {
		next = nav.cur.FirstAttribute()
	} else {
		next = nav.attr.NextAttribute()
	}
	if next.IsZero() {
		return false
	}
	nav.attr = next
	return true
}

func (nav *treeNavigator) MoveToChild() bool {
	c := nav.cur.FirstChild()
	if c.IsZero() {
		return false
	}
	nav.cur = c
	nav.attr = Node{}
	return true
}

func (nav *treeNavigator) MoveToFirst() bool {
	for {
		p := nav.cur.PreviousSibling()
		if p.IsZero() {
			return true
		}
		nav.cur = p
		nav.attr = Node{}
	}
}

func (nav *treeNavigator) MoveToNext() bool {
	s := nav.cur.NextSibling()
	if s.IsZero() {
		return false
	}
	nav.cur = s
	nav.attr = Node{}
	return true
}

func (nav *treeNavigator) MoveToPrevious() bool {
	s := nav.cur.PreviousSibling()
	if s.IsZero() {
		return false
	}
	nav.cur = s
	nav.attr = Node{}
	return true
}

func (nav *treeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*treeNavigator)
	if !ok || o.cur.doc != nav.cur.doc {
		return false
	}
	nav.cur = o.cur
	nav.attr = o.attr
	return true
}

// EvaluateSingleString evaluates a structural query against the subtree
// rooted at root and returns the string value of the first matching node, or
// the empty string when nothing matches or the query does not compile.
func EvaluateSingleString(query string, root Node) string {
	if root.IsZero() {
		return ""
	}
	expr, err := xpath.Compile(query)
	if err != nil {
		return ""
	}
	iter := expr.Select(newNavigator(root))
	if iter.MoveNext() {
		if nav, ok := iter.Current().(*treeNavigator); ok {
			return nav.Value()
		}
	}
	return ""
}
