// File: internal/markup/fuzz_test.go
package markup

import (
	"testing"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"
)

// FuzzParse feeds arbitrary bytes and option combinations through the HTML
// recovery path, which must always produce a well-formed tree and never an
// error or a panic.
func FuzzParse(f *testing.F) {
	f.Add([]byte(`<html><body><p>hello</p></body></html>`))
	f.Add([]byte(`<td>1<td>2`))
	f.Add([]byte(`<p>A<br>B</br>C</p>`))
	f.Add([]byte(`<b><table><tr><td>x</b></td></tr></table></b>`))
	f.Add([]byte(`<?xml version="1.0" encoding="iso-8859-1"?><a xmlns:p="u"><p:b k="v">t</p:b></a>`))
	f.Add([]byte("<a>caf\xe9</a>"))
	f.Add([]byte(`</div></div><///><!<>`))

	f.Fuzz(func(t *testing.T, data []byte) {
		cons := fuzzheaders.NewConsumer(data)
		opts := DefaultOptions()
		if b, err := cons.GetBool(); err == nil {
			opts.TrimText = b
		}
		if b, err := cons.GetBool(); err == nil {
			opts.KeepComments = b
		}
		if b, err := cons.GetBool(); err == nil {
			opts.KeepPIs = b
		}

		doc, err := New(opts).ParseBytes(data)
		if err != nil {
			t.Fatalf("recovery parse failed: %v", err)
		}
		checkTreeShape(t, doc)
	})
}

// checkTreeShape verifies the structural invariants that must survive any
// input: reverse is an involution over Open/Close pairs, every Close follows
// its Open, and the sequence links are mutually consistent.
func checkTreeShape(t *testing.T, doc *Document) {
	t.Helper()
	prev := Node{}
	for n := doc.Root(); !n.IsZero(); n = n.Next() {
		if !prev.IsZero() && n.Previous().id != prev.id {
			t.Fatalf("sequence links inconsistent at node %d", n.id)
		}
		switch n.Kind() {
		case KindOpen:
			if n.id != 0 {
				c := n.Reverse()
				if c.IsZero() || c.Kind() != KindClose {
					t.Fatalf("open %q without a close", n.Value())
				}
				if c.Reverse().id != n.id {
					t.Fatalf("reverse not an involution for %q", n.Value())
				}
				if c.Offset() < n.Offset() {
					t.Fatalf("close of %q precedes its open", n.Value())
				}
			}
		case KindClose:
			if n.Reverse().IsZero() {
				t.Fatalf("close %q without an open", n.Value())
			}
		}
		prev = n
	}
}
