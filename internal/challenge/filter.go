package challenge

import (
	"strings"

	"golang.org/x/text/cases"
)

// FilterState is the user-controlled list filter. An empty SelectedTypes set
// lets every type through.
type FilterState struct {
	SearchText    string
	SelectedTypes map[Type]struct{}
}

// NewFilterState builds a filter from a search text and a list of types.
func NewFilterState(search string, types ...Type) FilterState {
	state := FilterState{SearchText: search}
	if len(types) > 0 {
		state.SelectedTypes = make(map[Type]struct{}, len(types))
		for _, t := range types {
			state.SelectedTypes[t] = struct{}{}
		}
	}
	return state
}

// Types returns the selected types in display order.
func (f FilterState) Types() []Type {
	types := make([]Type, 0, len(f.SelectedTypes))
	for _, t := range AllTypes {
		if _, ok := f.SelectedTypes[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Filter returns the rows matching state, preserving their order.
//
// Placeholder rows ignore the type filter and only match the search text
// against their lesson name. Other rows must pass the type filter and, when a
// search text is present, contain it in the title or lesson name.
func Filter(rows []Row, state FilterState) []Row {
	folder := cases.Fold()
	needle := folder.String(state.SearchText)

	contains := func(haystack string) bool {
		return strings.Contains(folder.String(haystack), needle)
	}

	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.IsEmptyGroup {
			if needle == "" || contains(row.LessonName) {
				result = append(result, row)
			}
			continue
		}

		if len(state.SelectedTypes) > 0 {
			if row.Type == nil {
				continue
			}
			if _, ok := state.SelectedTypes[*row.Type]; !ok {
				continue
			}
		}

		if needle != "" {
			title := ""
			if row.Title != nil {
				title = *row.Title
			}
			if !contains(title) && !contains(row.LessonName) {
				continue
			}
		}

		result = append(result, row)
	}
	return result
}
