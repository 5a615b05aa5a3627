package pandoc

import "strings"

// InlineText flattens a list of inline nodes to plain text.
func InlineText(nodes []Node) string {
	var sb strings.Builder
	writeInlineText(&sb, nodes)
	return strings.TrimSpace(sb.String())
}

func writeInlineText(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case "Str":
			sb.WriteString(n.Text)
		case "Space", "SoftBreak":
			sb.WriteByte(' ')
		case "LineBreak":
			sb.WriteByte('\n')
		case "Code", "Math":
			sb.WriteString(n.Text)
		default:
			writeInlineText(sb, n.Children)
		}
	}
}

// BlockText flattens paragraph-like blocks to plain text, joining blocks
// with single spaces.
func BlockText(nodes []Node) string {
	var parts []string
	for _, n := range nodes {
		switch n.Kind {
		case "Para", "Plain", "Caption":
			if t := InlineText(n.Children); t != "" {
				parts = append(parts, t)
			}
		case "Str":
			parts = append(parts, n.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Walk calls fn for every node in the tree, depth first. If fn returns
// false the node's children are skipped.
func Walk(nodes []Node, fn func(*Node) bool) {
	for i := range nodes {
		if fn(&nodes[i]) {
			Walk(nodes[i].Children, fn)
		}
	}
}
