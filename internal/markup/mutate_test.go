// File: internal/markup/mutate_test.go
package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElementDetached(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div>x</div>`)
	require.NoError(t, err)

	el := doc.NewElement("em")
	require.Equal(t, KindOpen, el.Kind())
	assert.Equal(t, "em", el.Value())
	assert.Equal(t, KindClose, el.Reverse().Kind())
	assert.Equal(t, el.id, el.Reverse().Reverse().id)
	assert.True(t, el.FirstChild().IsZero())
	assert.True(t, el.Parent().IsZero(), "a fresh element is not linked anywhere")
}

func TestSetAttribute(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a href="/old">x</a>`)
	require.NoError(t, err)
	a := doc.Root().FirstChild()

	a.SetAttribute("href", "/new")
	assert.Equal(t, "/new", a.Attribute("href"))

	a.SetAttribute("rel", "nofollow")
	assert.Equal(t, "nofollow", a.Attribute("rel"))

	var names []string
	for at := a.FirstAttribute(); !at.IsZero(); at = at.NextAttribute() {
		names = append(names, at.Value())
	}
	assert.Equal(t, []string{"href", "rel"}, names, "replacement must not duplicate the chain entry")

	text := a.FirstChild()
	assert.PanicsWithValue(t, "markup: SetAttribute on Text node", func() {
		text.SetAttribute("k", "v")
	})
}

func TestAddChild(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>a</p></div>`)
	require.NoError(t, err)
	div := doc.Root().FirstChild()

	em := doc.NewElement("em")
	em.AddChild(doc.NewText("b"))
	div.AddChild(em)

	want := []string{
		"Open(div)", "Open(p)", "Text(a)", "Close(p)",
		"Open(em)", "Text(b)", "Close(em)", "Close(div)",
	}
	assert.Equal(t, want, dumpSequence(doc))
	assert.Equal(t, "div", em.Parent().Value())
	assert.Equal(t, "div", em.Reverse().Parent().Value())
	assert.Equal(t, "em", div.FirstChild().NextSibling().Value())
}

func TestAddChildToRoot(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a>x</a>`)
	require.NoError(t, err)

	doc.Root().AddChild(doc.NewElement("b"))
	want := []string{"Open(a)", "Text(x)", "Close(a)", "Open(b)", "Close(b)"}
	assert.Equal(t, want, dumpSequence(doc))
}

func TestInsertAfter(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>a</p><p>c</p></div>`)
	require.NoError(t, err)

	first := doc.Root().FindFirst("p")
	mid := doc.NewElement("p")
	mid.AddChild(doc.NewText("b"))
	first.InsertAfter(mid)

	var values []string
	for p := doc.Root().FirstChild().FirstChild(); !p.IsZero(); p = p.NextSibling() {
		values = append(values, p.TextContent(""))
	}
	assert.Equal(t, []string{"a", "b", "c"}, values)
	assert.Equal(t, "div", mid.Parent().Value())
}

func TestInsertSurrounding(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>x</p></div>`)
	require.NoError(t, err)

	p := doc.Root().FindFirst("p")
	p.InsertSurrounding(doc.NewElement("section"))

	want := []string{
		"Open(div)", "Open(section)", "Open(p)", "Text(x)",
		"Close(p)", "Close(section)", "Close(div)",
	}
	assert.Equal(t, want, dumpSequence(doc))
	assert.Equal(t, "section", p.Parent().Value())
	assert.Equal(t, "div", p.Parent().Parent().Value())

	assert.Panics(t, func() { p.InsertSurrounding(p.FirstChild()) })
}

func TestRemoveKeepingChildren(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><span>a<b>c</b></span></div>`)
	require.NoError(t, err)

	span := doc.Root().FindFirst("span")
	span.RemoveKeepingChildren()

	want := []string{"Open(div)", "Text(a)", "Open(b)", "Text(c)", "Close(b)", "Close(div)"}
	assert.Equal(t, want, dumpSequence(doc))

	div := doc.Root().FirstChild()
	assert.Equal(t, "div", div.FirstChild().Parent().Value())
	b := doc.Root().FindFirst("b")
	assert.Equal(t, "div", b.Parent().Value())
	assert.Equal(t, "c", b.FirstChild().Value(), "grandchildren keep their parent")
}

func TestCloneDeep(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><a href="/x">link<b>deep</b></a></div>`)
	require.NoError(t, err)

	a := doc.Root().FindFirst("a")
	cp := a.CloneDeep()
	require.False(t, cp.IsZero())
	assert.NotEqual(t, a.id, cp.id)

	// The copy is detached but structurally identical.
	assert.True(t, cp.Parent().IsZero())
	assert.Equal(t, "/x", cp.Attribute("href"))
	assert.Equal(t, "link deep", cp.TextContent(" "))
	assert.Equal(t, cp.id, cp.Reverse().Reverse().id)
	assert.Equal(t, "b", cp.FindFirst("b").Value())
	assert.Equal(t, cp.id, cp.FindFirst("b").Parent().id)

	// Mutating the copy leaves the original alone.
	cp.SetAttribute("href", "/y")
	assert.Equal(t, "/x", a.Attribute("href"))

	doc.Root().AddChild(cp)
	assert.Equal(t, "", cp.Parent().Value())

	assert.Panics(t, func() { a.Reverse().CloneDeep() })
}

func TestCloneLeaf(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a>x</a>`)
	require.NoError(t, err)

	text := doc.Root().FirstChild().FirstChild()
	cp := text.CloneDeep()
	assert.Equal(t, KindText, cp.Kind())
	assert.Equal(t, "x", cp.Value())
	assert.True(t, cp.Next().IsZero())
}

func TestSerializeCompact(t *testing.T) {
	src := `<root a="1"><item>x &amp; y</item><empty/></root>`
	doc, err := strictParser().ParseString(src)
	require.NoError(t, err)
	assert.Equal(t, src, doc.Root().Serialize(false))
}

func TestSerializePretty(t *testing.T) {
	doc, err := strictParser().ParseString(`<root><item>x</item></root>`)
	require.NoError(t, err)
	want := "<root>\n  <item>\n    x\n  </item>\n</root>\n"
	assert.Equal(t, want, doc.Root().Serialize(true))
}

func TestSerializeEscaping(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a title="say &quot;hi&quot;">1 &lt; 2</a>`)
	require.NoError(t, err)
	assert.Equal(t, `<a title="say &quot;hi&quot;">1 &lt; 2</a>`, doc.Root().Serialize(false))
}

func TestSerializeAfterMutation(t *testing.T) {
	doc, err := htmlParser().ParseString(`<div><p>x</p></div>`)
	require.NoError(t, err)

	p := doc.Root().FindFirst("p")
	p.InsertSurrounding(doc.NewElement("section"))
	p.SetAttribute("id", "k")

	assert.Equal(t, `<div><section><p id="k">x</p></section></div>`, doc.Root().Serialize(false))
}
