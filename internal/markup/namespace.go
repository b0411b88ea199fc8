// File: internal/markup/namespace.go
package markup

import "strings"

// Well known namespaces that resolve without any declaration in scope.
const (
	xmlNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespaceURI = "http://www.w3.org/2000/xmlns/"
)

// scopeEntry is one active binding together with the Open node that
// introduced it, so the whole set can be popped when that node closes.
type scopeEntry struct {
	binding    NamespaceBinding
	introducer nodeID
	table      int32 // index in the document namespace table
}

// nsScope tracks the stack of active prefix->URI bindings during a parse.
// Resolution searches the stack innermost first, then the global table, then
// the fixed xml/xmlns prefixes, and finally falls back to the default
// namespace of the current scope.
type nsScope struct {
	doc     *Document
	stack   []scopeEntry
	global  map[string]string
	deflt   int32 // table index of the current default namespace, or -1
	defstk  []int32
}

func newNSScope(doc *Document, global map[string]string) *nsScope {
	return &nsScope{doc: doc, global: global, deflt: -1}
}

// declare pushes a binding introduced by the attribute xmlns or xmlns:X on
// the given Open node. An empty prefix also becomes the new default.
func (s *nsScope) declare(prefix, uri string, introducer nodeID) {
	ix := s.doc.addNamespace(prefix, uri)
	s.stack = append(s.stack, scopeEntry{
		binding:    NamespaceBinding{Prefix: prefix, URI: uri},
		introducer: introducer,
		table:      ix,
	})
	if prefix == "" {
		s.defstk = append(s.defstk, s.deflt)
		s.deflt = ix
	}
}

// declareFromAttrs scans raw attributes of an element for namespace
// declarations and registers them before any name on the element resolves.
func (s *nsScope) declareFromAttrs(attrs []Attr, introducer nodeID) {
	for _, a := range attrs {
		switch {
		case a.Name == "xmlns":
			s.declare("", a.Value, introducer)
		case strings.HasPrefix(a.Name, "xmlns:"):
			s.declare(a.Name[len("xmlns:"):], a.Value, introducer)
		}
	}
}

// resolve maps a prefix to a namespace table index. ok=false means the
// prefix is declared nowhere; the caller decides whether that is fatal.
// An empty prefix resolves to the current default (which may be none).
func (s *nsScope) resolve(prefix string) (int32, bool) {
	if prefix == "" {
		return s.deflt, true
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].binding.Prefix == prefix {
			return s.stack[i].table, true
		}
	}
	if uri, ok := s.global[prefix]; ok {
		return s.doc.addNamespace(prefix, uri), true
	}
	switch prefix {
	case "xml":
		return s.doc.addNamespace("xml", xmlNamespaceURI), true
	case "xmlns":
		return s.doc.addNamespace("xmlns", xmlnsNamespaceURI), true
	}
	return -1, false
}

// leave pops every binding introduced by the Open node that just produced
// its Close. If a popped binding was the default namespace, the default
// reverts to whatever is now topmost.
func (s *nsScope) leave(introducer nodeID) {
	for len(s.stack) > 0 && s.stack[len(s.stack)-1].introducer == introducer {
		top := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		if top.binding.Prefix == "" && len(s.defstk) > 0 {
			s.deflt = s.defstk[len(s.defstk)-1]
			s.defstk = s.defstk[:len(s.defstk)-1]
		}
	}
}
