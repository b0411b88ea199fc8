// File: internal/markup/serialize.go
package markup

import "strings"

// Serialize renders the subtree rooted at the node back to markup. With
// pretty set, elements are placed on their own indented lines.
func (n Node) Serialize(pretty bool) string {
	if n.IsZero() {
		return ""
	}
	var sb strings.Builder
	writeNode(&sb, n, pretty, 0)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node, pretty bool, depth int) {
	switch n.Kind() {
	case KindOpen:
		if n.Value() == "" {
			// Document root: render the children only.
			writeChildren(sb, n, pretty, depth)
			return
		}
		writeIndent(sb, pretty, depth)
		sb.WriteByte('<')
		sb.WriteString(n.Value())
		for at := n.FirstAttribute(); !at.IsZero(); at = at.NextAttribute() {
			sb.WriteByte(' ')
			sb.WriteString(at.Value())
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(at.Reverse().Value()))
			sb.WriteByte('"')
		}
		r := n.rec()
		if r.next != nilNode && r.next == r.reverse {
			sb.WriteString("/>")
			writeNewline(sb, pretty)
			return
		}
		sb.WriteByte('>')
		writeNewline(sb, pretty)
		writeChildren(sb, n, pretty, depth+1)
		writeIndent(sb, pretty, depth)
		sb.WriteString("</")
		sb.WriteString(n.Value())
		sb.WriteByte('>')
		writeNewline(sb, pretty)

	case KindText:
		writeIndent(sb, pretty, depth)
		sb.WriteString(escapeText(n.Value()))
		writeNewline(sb, pretty)

	case KindComment:
		writeIndent(sb, pretty, depth)
		sb.WriteString("<!--")
		sb.WriteString(n.Value())
		sb.WriteString("-->")
		writeNewline(sb, pretty)

	case KindProcessingInstruction:
		writeIndent(sb, pretty, depth)
		sb.WriteString("<?")
		sb.WriteString(n.Value())
		if body := n.instructionBody(); body != "" {
			sb.WriteByte(' ')
			sb.WriteString(body)
		}
		sb.WriteString("?>")
		writeNewline(sb, pretty)
	}
}

func writeChildren(sb *strings.Builder, n Node, pretty bool, depth int) {
	for c := n.FirstChild(); !c.IsZero(); c = c.NextSibling() {
		writeNode(sb, c, pretty, depth)
	}
}

// instructionBody returns the raw instruction text held as the synthetic
// first attribute of a ProcessingInstruction node.
func (n Node) instructionBody() string {
	at := n.handle(n.rec().attrs)
	if at.IsZero() {
		return ""
	}
	return at.Reverse().Value()
}

func writeIndent(sb *strings.Builder, pretty bool, depth int) {
	if !pretty {
		return
	}
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

func writeNewline(sb *strings.Builder, pretty bool) {
	if pretty {
		sb.WriteByte('\n')
	}
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	return strings.ReplaceAll(s, "<", "&lt;")
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
