package challenge

// Paginate returns the rows of the requested page with group metadata
// recomputed for that window only. A lesson split across a page boundary is
// treated as two independent runs. Callers clamp page with ClampPage first;
// an out of range page yields an empty result.
func Paginate(rows []Row, page, pageSize int) []Row {
	if len(rows) == 0 || page < 1 || pageSize < 1 {
		return []Row{}
	}

	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []Row{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}

	window := make([]Row, end-start)
	copy(window, rows[start:end])
	markGroups(window)
	return window
}

// markGroups flags the first row of every maximal run of equal lesson keys.
func markGroups(rows []Row) {
	for i := 0; i < len(rows); {
		key := rows[i].groupKey()
		j := i + 1
		for j < len(rows) && rows[j].groupKey() == key {
			j++
		}

		rows[i].IsFirstInGroup = true
		rows[i].GroupSpan = j - i
		for k := i + 1; k < j; k++ {
			rows[k].IsFirstInGroup = false
			rows[k].GroupSpan = 0
		}
		i = j
	}
}

// TotalPages is the number of pages needed for total rows, never below one.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, pageSize); page > last {
		return last
	}
	return page
}
