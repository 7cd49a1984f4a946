package listsync

// Gap marks an elided run of pages in a PageWindow.
const Gap = -1

// PageWindow returns the 0-based page numbers to render for a pager, with Gap where
// pages are elided. Up to seven pages are listed in full; beyond that the first and
// last page are kept around a window of current±1.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	if current < 0 {
		current = 0
	}
	if current >= totalPages {
		current = totalPages - 1
	}
	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i
		}
		return pages
	}

	// Work 1-based to keep the window arithmetic readable.
	p, tp := current+1, totalPages
	pages := []int{0}
	if p > 4 {
		pages = append(pages, Gap)
	}
	for i := max(2, p-1); i <= min(tp-1, p+1); i++ {
		pages = append(pages, i-1)
	}
	if p < tp-3 {
		pages = append(pages, Gap)
	}
	return append(pages, tp-1)
}
