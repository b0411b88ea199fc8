// File: internal/markup/xpathnav_test.go
package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSingleString(t *testing.T) {
	src := `<catalog>
		<item id="1"><name>first</name></item>
		<item id="2"><name>second</name></item>
	</catalog>`
	doc, err := htmlParser().ParseString(src)
	require.NoError(t, err)
	root := doc.Root()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"element text", "//item[@id='2']/name", "second"},
		{"attribute value", "//item[2]/@id", "2"},
		{"first match wins", "//name", "first"},
		{"absolute path", "/catalog/item/name", "first"},
		{"no match", "//missing", ""},
		{"bad query", "//[", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateSingleString(tt.query, root))
		})
	}
}

func TestEvaluateAgainstSubtree(t *testing.T) {
	doc, err := htmlParser().ParseString(`<a><b><c>inner</c></b><c>outer</c></a>`)
	require.NoError(t, err)

	b := doc.Root().FindFirst("b")
	assert.Equal(t, "inner", EvaluateSingleString("//c", b))
}

func TestEvaluateMetaContentType(t *testing.T) {
	src := `<html><head>
		<meta name="viewport" content="width=device-width">
		<meta http-equiv="Content-Type" content="text/html; charset=windows-1252">
	</head><body>x</body></html>`
	doc, err := New(Options{Mode: ModeHTML, TrimText: true}).ParseString(src)
	require.NoError(t, err)

	got := EvaluateSingleString(metaContentTypeQuery, doc.Root())
	assert.Equal(t, "text/html; charset=windows-1252", got)
}

func TestEvaluateZeroRoot(t *testing.T) {
	assert.Equal(t, "", EvaluateSingleString("//a", Node{}))
}

func TestEvaluateElementStringValue(t *testing.T) {
	doc, err := htmlParser().ParseString(`<p>one<b>two</b>three</p>`)
	require.NoError(t, err)
	assert.Equal(t, "onetwothree", EvaluateSingleString("//p", doc.Root()))
}
