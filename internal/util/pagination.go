package util

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	from = (page - 1) * size
	return from, size
}

// Meta is the pagination block list endpoints return next to their items.
func Meta(page, limit int, total int64) map[string]any {
	if page < 1 {
		page = 1
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": totalPages,
		"has_prev":    page > 1,
		"has_next":    int64(page) < totalPages,
	}
}
