package annotation

import "sort"

// Segment is a contiguous piece of the source with the ids of every
// highlight covering it. A segment with no covering ids is plain text.
type Segment struct {
	Text             string   `json:"text"`
	Start            int      `json:"start"`
	End              int      `json:"end"`
	CoveringRangeIDs []string `json:"covering_range_ids"`
}

// Plain reports whether no highlight covers the segment.
func (s Segment) Plain() bool {
	return len(s.CoveringRangeIDs) == 0
}

// IsCoveredBy reports whether highlight id covers the segment. Callers use it
// to pick the active range when several overlap.
func (s Segment) IsCoveredBy(id string) bool {
	for _, covering := range s.CoveringRangeIDs {
		if covering == id {
			return true
		}
	}
	return false
}

// Render splits source at every highlight boundary. The segments are in
// order, gap-free and overlap-free, and their texts concatenate back to source.
// Range bounds are clamped to the source; empty pieces are dropped.
func Render(source string, ranges []Range) []Segment {
	runes := []rune(source)
	length := len(runes)
	if length == 0 {
		return []Segment{}
	}

	cuts := map[int]struct{}{0: {}, length: {}}
	for _, r := range ranges {
		cuts[clamp(r.Start, 0, length)] = struct{}{}
		cuts[clamp(r.End, 0, length)] = struct{}{}
	}

	points := make([]int, 0, len(cuts))
	for p := range cuts {
		points = append(points, p)
	}
	sort.Ints(points)

	ordered := append([]Range(nil), ranges...)
	sortRanges(ordered)

	segments := make([]Segment, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		if a == b {
			continue
		}

		covering := []string{}
		for _, r := range ordered {
			if r.Start <= a && r.End >= b {
				covering = append(covering, r.ID)
			}
		}

		segments = append(segments, Segment{
			Text:             string(runes[a:b]),
			Start:            a,
			End:              b,
			CoveringRangeIDs: covering,
		})
	}
	return segments
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
