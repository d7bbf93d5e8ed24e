package application

import "aavetx/internal/domain"

// LookupQueryFilter selects audited lookups. Zero values match everything.
type LookupQueryFilter struct {
	Hash      string
	Chain     domain.Chain
	FoundOnly bool
	Limit     int
}

func NormalizeLookupLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
