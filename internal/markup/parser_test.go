// File: internal/markup/parser_test.go
package markup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func htmlParser() *Parser {
	return New(Options{Mode: ModeHTML, TrimText: true, DetectEncoding: true, ConvertEntities: true})
}

func strictParser() *Parser {
	return New(Options{Mode: ModeStrict, TrimText: true, DetectEncoding: true, ConvertEntities: true})
}

// dumpSequence flattens the sequence list into "Kind(value)" strings,
// skipping the document root itself.
func dumpSequence(doc *Document) []string {
	var out []string
	for n := doc.Root().Next(); !n.IsZero(); n = n.Next() {
		out = append(out, fmt.Sprintf("%s(%s)", n.Kind(), n.Value()))
	}
	return out
}

func TestParseSimpleTree(t *testing.T) {
	doc, err := htmlParser().ParseString(`<html><body><p>hello</p></body></html>`)
	require.NoError(t, err)

	want := []string{
		"Open(html)", "Open(body)", "Open(p)", "Text(hello)",
		"Close(p)", "Close(body)", "Close(html)",
	}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestVoidElementAutoClose(t *testing.T) {
	// br must synthesize its own close immediately, not wrap the B text.
	doc, err := htmlParser().ParseString(`<p>A<br>B</p>`)
	require.NoError(t, err)

	want := []string{
		"Open(p)", "Text(A)", "Open(br)", "Close(br)", "Text(B)", "Close(p)",
	}
	assert.Equal(t, want, dumpSequence(doc))

	p := doc.Root().FirstChild()
	require.Equal(t, "p", p.Value())
	br := p.FirstChild().NextSibling()
	require.Equal(t, "br", br.Value())
	assert.True(t, br.FirstChild().IsZero(), "void element must have no children")
	assert.Equal(t, "B", br.NextSibling().Value())
}

func TestVoidCloseRelocation(t *testing.T) {
	// An explicit </br> later in the document moves the implicit close
	// point forward and adopts the content in between.
	doc, err := htmlParser().ParseString(`<p>A<br>B</br>C</p>`)
	require.NoError(t, err)

	want := []string{
		"Open(p)", "Text(A)", "Open(br)", "Text(B)", "Close(br)", "Text(C)", "Close(p)",
	}
	assert.Equal(t, want, dumpSequence(doc))

	br := doc.Root().FindFirst("br")
	require.False(t, br.IsZero())
	assert.Equal(t, "B", br.FirstChild().Value())
	assert.Equal(t, "p", br.Parent().Value())
	assert.Equal(t, "br", br.FirstChild().Parent().Value(), "adopted text must be reparented")
}

func TestTableRepairSiblingCells(t *testing.T) {
	// The first td auto-closes when the second one opens.
	doc, err := htmlParser().ParseString(`<td>1<td>2`)
	require.NoError(t, err)

	want := []string{
		"Open(td)", "Text(1)", "Close(td)", "Open(td)", "Text(2)", "Close(td)",
	}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestTableRepairRows(t *testing.T) {
	doc, err := htmlParser().ParseString(`<table><tr><td>a<tr><td>b</table>`)
	require.NoError(t, err)

	want := []string{
		"Open(table)",
		"Open(tr)", "Open(td)", "Text(a)", "Close(td)", "Close(tr)",
		"Open(tr)", "Open(td)", "Text(b)", "Close(td)", "Close(tr)",
		"Close(table)",
	}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestStrayCloseOutweighed(t *testing.T) {
	// The stray </b> inside the table must not rip the table open: it is
	// dropped, and the real close of b lands at the end.
	doc, err := htmlParser().ParseString(`<b><table><tr><td>x</b></td></tr></table></b>`)
	require.NoError(t, err)

	seq := dumpSequence(doc)
	closes := 0
	for _, s := range seq {
		if s == "Close(b)" {
			closes++
		}
	}
	assert.Equal(t, 1, closes, "stray </b> must not produce a Close node")

	table := doc.Root().FindFirst("table")
	require.False(t, table.IsZero())
	assert.Equal(t, "b", table.Parent().Value(), "table must stay inside b")
}

func TestMismatchedCloseRecovery(t *testing.T) {
	// </div> force-closes the lighter span and p on the way down.
	doc, err := htmlParser().ParseString(`<div><p><span>x</div>`)
	require.NoError(t, err)

	want := []string{
		"Open(div)", "Open(p)", "Open(span)", "Text(x)",
		"Close(span)", "Close(p)", "Close(div)",
	}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestUnmatchedCloseDropped(t *testing.T) {
	doc, err := htmlParser().ParseString(`<p>x</q></p>`)
	require.NoError(t, err)
	want := []string{"Open(p)", "Text(x)", "Close(p)"}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestUnclosedElementsAutoClosedAtEOF(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>x`)
	require.NoError(t, err)
	want := []string{"Open(div)", "Open(p)", "Text(x)", "Close(p)", "Close(div)"}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestStrictModeMismatchFails(t *testing.T) {
	_, err := strictParser().ParseString(`<a><b></a></b>`)
	require.Error(t, err)

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "a", serr.Tag)
}

func TestStrictModeUnclosedFails(t *testing.T) {
	_, err := strictParser().ParseString(`<a><b></b>`)
	require.Error(t, err)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "a", serr.Tag)
}

func TestStrictModeRejectsBOM(t *testing.T) {
	_, err := strictParser().ParseBytes(append([]byte{0xef, 0xbb, 0xbf}, []byte(`<a/>`)...))
	require.Error(t, err)

	// HTML mode skips it instead.
	doc, err := htmlParser().ParseBytes(append([]byte{0xef, 0xbb, 0xbf}, []byte(`<a></a>`)...))
	require.NoError(t, err)
	assert.Equal(t, []string{"Open(a)", "Close(a)"}, dumpSequence(doc))
}

func TestStrictModeTextOutsideRootFails(t *testing.T) {
	_, err := strictParser().ParseString(`stray<a></a>`)
	require.Error(t, err)

	// Whitespace outside the document element is fine.
	_, err = strictParser().ParseString("\n  <a></a>\n")
	require.NoError(t, err)
}

func TestCommentsAndInstructions(t *testing.T) {
	src := `<?tpl render fast?><a><!-- note -->x</a>`

	doc, err := htmlParser().ParseString(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open(a)", "Text(x)", "Close(a)"}, dumpSequence(doc),
		"comments and instructions dropped by default")

	keep := New(Options{Mode: ModeHTML, TrimText: true, KeepComments: true, KeepPIs: true})
	doc, err = keep.ParseString(src)
	require.NoError(t, err)
	want := []string{
		"ProcessingInstruction(tpl)", "Open(a)", "Comment( note )", "Text(x)", "Close(a)",
	}
	assert.Equal(t, want, dumpSequence(doc))

	pi := doc.Root().Next()
	require.Equal(t, KindProcessingInstruction, pi.Kind())
	assert.Equal(t, "render fast", pi.instructionBody())
}

func TestReversePairingInvariants(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>a<br>b</p><span>c</span></div>`)
	require.NoError(t, err)

	for n := doc.Root().Next(); !n.IsZero(); n = n.Next() {
		if n.Kind() != KindOpen {
			continue
		}
		c := n.Reverse()
		require.False(t, c.IsZero(), "open %q lacks a close", n.Value())
		assert.Equal(t, n.id, c.Reverse().id, "reverse must be an involution")
		assert.Less(t, n.Offset(), c.Offset(), "open must precede its close")

		// Every node strictly between the pair must reach n via parents.
		for m := n.Next(); m.id != c.id; m = m.Next() {
			p := m
			for !p.IsZero() && p.id != n.id {
				p = p.Parent()
			}
			assert.Equal(t, n.id, p.id, "node %q not enclosed by %q", m.Value(), n.Value())
		}
	}
}

func TestRoundTripStrict(t *testing.T) {
	src := `<root a="1"><item>first</item><item flag="y">second &amp; third</item><empty/></root>`

	p := strictParser()
	doc1, err := p.ParseString(src)
	require.NoError(t, err)

	doc2, err := p.ParseString(doc1.Root().Serialize(false))
	require.NoError(t, err)

	if diff := cmp.Diff(dumpSequence(doc1), dumpSequence(doc2)); diff != "" {
		t.Fatalf("round trip changed the tree (-first +second):\n%s", diff)
	}
}

func TestTrimTextOption(t *testing.T) {
	doc, err := htmlParser().ParseString("<a>  spaced  </a>")
	require.NoError(t, err)
	assert.Equal(t, "spaced", doc.Root().FirstChild().TextContent(" "))

	raw := New(Options{Mode: ModeHTML, TrimText: false})
	doc, err = raw.ParseString("<a>  spaced  </a>")
	require.NoError(t, err)
	assert.Equal(t, "  spaced  ", doc.Root().FirstChild().TextContent(" "))
}

func TestEntitySubstitution(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a>fish &amp; chips &#65;</a>`)
	require.NoError(t, err)
	assert.Equal(t, "fish & chips A", doc.Root().FirstChild().TextContent(" "))
}

func TestParseReader(t *testing.T) {
	doc, err := htmlParser().ParseReader(strings.NewReader(`<a>x</a>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Open(a)", "Text(x)", "Close(a)"}, dumpSequence(doc))
}
