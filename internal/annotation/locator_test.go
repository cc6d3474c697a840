package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
)

func TestLocateDirectOffsets(t *testing.T) {
	source := "The quick brown fox"
	container := annotation.Container{Nodes: []string{"The ", "quick brown", " fox"}}

	span, ok := annotation.Locate(container, annotation.Selection{
		Anchor: annotation.Position{Node: 1, Offset: 6},
		Focus:  annotation.Position{Node: 1, Offset: 11},
		Text:   "brown",
	}, source)
	require.True(t, ok)
	require.Equal(t, annotation.Span{Start: 10, End: 15}, span)
}

func TestLocateBackwardSelection(t *testing.T) {
	source := "The quick brown fox"
	span, ok := annotation.Locate(annotation.ContainerFromText(source), annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 9},
		Focus:  annotation.Position{Node: 0, Offset: 4},
		Text:   "quick",
	}, source)
	require.True(t, ok)
	require.Equal(t, annotation.Span{Start: 4, End: 9}, span)
}

func TestLocateFallsBackToLiteralSearch(t *testing.T) {
	source := "The quick brown fox"
	// The renderer padded the leading whitespace, so node offsets drift.
	container := annotation.Container{Nodes: []string{"The    quick brown fox"}}

	span, ok := annotation.Locate(container, annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 7},
		Focus:  annotation.Position{Node: 0, Offset: 12},
		Text:   " quick ",
	}, source)
	require.True(t, ok)
	require.Equal(t, annotation.Span{Start: 4, End: 9}, span)
}

func TestLocateBestEffortWhenTextMissing(t *testing.T) {
	source := "The quick brown fox"
	span, ok := annotation.Locate(annotation.ContainerFromText("Completely different"), annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 0},
		Focus:  annotation.Position{Node: 0, Offset: 10},
		Text:   "zzz",
	}, source)
	require.True(t, ok)
	require.Equal(t, annotation.Span{Start: 0, End: 10}, span)
}

func TestLocateRejectsInvalidSelections(t *testing.T) {
	source := "The quick brown fox"
	container := annotation.ContainerFromText(source)

	_, ok := annotation.Locate(container, annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 3},
		Focus:  annotation.Position{Node: 0, Offset: 3},
		Text:   "",
	}, source)
	require.False(t, ok, "collapsed")

	_, ok = annotation.Locate(container, annotation.Selection{
		Anchor: annotation.Position{Node: 2, Offset: 0},
		Focus:  annotation.Position{Node: 0, Offset: 3},
		Text:   "The",
	}, source)
	require.False(t, ok, "outside container")

	_, ok = annotation.Locate(container, annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 3},
		Focus:  annotation.Position{Node: 0, Offset: 4},
		Text:   "   ",
	}, source)
	require.False(t, ok, "whitespace only")
}

func TestLocateCountsRunes(t *testing.T) {
	source := "Café au lait"
	span, ok := annotation.Locate(annotation.ContainerFromText(source), annotation.Selection{
		Anchor: annotation.Position{Node: 0, Offset: 5},
		Focus:  annotation.Position{Node: 0, Offset: 7},
		Text:   "au",
	}, source)
	require.True(t, ok)
	require.Equal(t, annotation.Span{Start: 5, End: 7}, span)
}

func TestNormalizeStripsMarkup(t *testing.T) {
	require.Equal(t, "Hello & welcome\nSecond\nline", annotation.Normalize("<p>Hello &amp; welcome</p><p>Second\r\nline</p>"))
	require.Equal(t, "a b", annotation.Normalize("a&nbsp;b"))
	require.Equal(t, "plain text", annotation.Normalize("plain text"))
}
