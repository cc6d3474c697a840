package challenge

import "time"

// SearchDebounce is the quiescence window interactive callers wait before a
// typed search text takes effect.
const SearchDebounce = 500 * time.Millisecond

// DefaultPageSize is used when a caller does not pick one.
const DefaultPageSize = 10

// PageResult is one rendered window of the filtered list.
type PageResult struct {
	Rows       []Row `json:"rows"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int   `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListView holds the list state a caller mutates through explicit actions.
// Derived views are recomputed from the source rows on every call.
type ListView struct {
	source   []Row
	filter   FilterState
	page     int
	pageSize int
}

// NewListView creates a view over rows. The slice is not modified.
func NewListView(rows []Row, pageSize int) *ListView {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &ListView{source: rows, page: 1, pageSize: pageSize}
}

// SetRows replaces the source rows, keeping filters and clamping the page.
func (v *ListView) SetRows(rows []Row) {
	v.source = rows
	v.page = ClampPage(v.page, len(v.filtered()), v.pageSize)
}

// Filter returns the active filter state.
func (v *ListView) Filter() FilterState {
	return v.filter
}

// CurrentPage returns the 1-based page index.
func (v *ListView) CurrentPage() int {
	return v.page
}

// SetSearchText applies a (debounced) search text.
func (v *ListView) SetSearchText(text string) {
	next := v.filter
	next.SearchText = text
	v.apply(next)
}

// ToggleType adds t to the type filter, or removes it when already selected.
func (v *ListView) ToggleType(t Type) {
	selected := make(map[Type]struct{}, len(v.filter.SelectedTypes)+1)
	for k := range v.filter.SelectedTypes {
		selected[k] = struct{}{}
	}
	if _, ok := selected[t]; ok {
		delete(selected, t)
	} else {
		selected[t] = struct{}{}
	}
	next := v.filter
	next.SelectedTypes = selected
	v.apply(next)
}

// SetTypes replaces the type filter.
func (v *ListView) SetTypes(types ...Type) {
	v.apply(NewFilterState(v.filter.SearchText, types...))
}

// Reset clears every filter and returns to the first page.
func (v *ListView) Reset() {
	v.filter = FilterState{}
	v.page = 1
}

// SetPage moves to page, clamped to the available range.
func (v *ListView) SetPage(page int) {
	v.page = ClampPage(page, len(v.filtered()), v.pageSize)
}

// SetPageSize changes the window size and returns to the first page.
func (v *ListView) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	if size != v.pageSize {
		v.pageSize = size
		v.page = 1
	}
}

// Page renders the current window.
func (v *ListView) Page() PageResult {
	filtered := v.filtered()
	page := ClampPage(v.page, len(filtered), v.pageSize)
	return PageResult{
		Rows:       Paginate(filtered, page, v.pageSize),
		Page:       page,
		PageSize:   v.pageSize,
		Total:      len(filtered),
		TotalPages: TotalPages(len(filtered), v.pageSize),
	}
}

func (v *ListView) apply(next FilterState) {
	before := len(v.filtered())
	v.filter = next
	after := len(v.filtered())
	if before != after {
		v.page = 1
		return
	}
	v.page = ClampPage(v.page, after, v.pageSize)
}

func (v *ListView) filtered() []Row {
	return Filter(v.source, v.filter)
}
