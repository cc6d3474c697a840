package annotation

import "strings"

// Container is the rendered text of a highlightable area as an ordered list
// of text nodes.
type Container struct {
	Nodes []string `json:"nodes"`
}

// ContainerFromText renders source as a single-node container.
func ContainerFromText(source string) Container {
	return Container{Nodes: []string{source}}
}

// Position addresses a rune offset inside one text node.
type Position struct {
	Node   int `json:"node"`
	Offset int `json:"offset"`
}

// Selection is a live selection: its two ends and the literal text the
// renderer reports as selected.
type Selection struct {
	Anchor Position `json:"anchor"`
	Focus  Position `json:"focus"`
	Text   string   `json:"text"`
}

// Span is a half-open [Start, End) rune range into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Locate maps sel onto the source text. It reports false when the selection
// is collapsed, empty, or not inside the container.
//
// The offsets are first derived from the container's node lengths. If the
// source slice and the selected text disagree, the trimmed selected text is
// searched literally in the source and its first match wins. Failing that,
// the computed offsets are returned as a best effort.
func Locate(container Container, sel Selection, source string) (Span, bool) {
	start, ok := container.offset(sel.Anchor)
	if !ok {
		return Span{}, false
	}
	end, ok := container.offset(sel.Focus)
	if !ok {
		return Span{}, false
	}
	if start > end {
		start, end = end, start
	}
	if start == end {
		return Span{}, false
	}

	selected := strings.TrimSpace(sel.Text)
	if selected == "" {
		selected = strings.TrimSpace(container.slice(start, end))
	}
	if selected == "" {
		return Span{}, false
	}

	runes := []rune(source)
	computed := Span{Start: start, End: end}
	if start < len(runes) {
		extracted := strings.TrimSpace(string(runes[start:minInt(end, len(runes))]))
		if extracted != "" && (strings.Contains(extracted, selected) || strings.Contains(selected, extracted)) {
			return computed, true
		}
	}

	if idx := strings.Index(source, selected); idx >= 0 {
		runeStart := RuneLen(source[:idx])
		return Span{Start: runeStart, End: runeStart + RuneLen(selected)}, true
	}

	return computed, true
}

// offset converts a node position into an offset over the whole container.
func (c Container) offset(pos Position) (int, bool) {
	if pos.Node < 0 || pos.Node >= len(c.Nodes) || pos.Offset < 0 {
		return 0, false
	}
	if pos.Offset > RuneLen(c.Nodes[pos.Node]) {
		return 0, false
	}

	total := 0
	for i := 0; i < pos.Node; i++ {
		total += RuneLen(c.Nodes[i])
	}
	return total + pos.Offset, true
}

func (c Container) slice(start, end int) string {
	runes := []rune(strings.Join(c.Nodes, ""))
	if start >= len(runes) {
		return ""
	}
	return string(runes[start:minInt(end, len(runes))])
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
