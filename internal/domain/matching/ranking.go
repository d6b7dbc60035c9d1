package matching

import "slices"

// Rank stably sorts items in place by the size sizeOf reports. Ascending puts
// smaller items first, Descending larger first. Items of equal size keep their
// relative order, so two runs over the same input rank identically.
func Rank[T any](items []T, order SortOrder, sizeOf func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		d := sizeOf(a) - sizeOf(b)
		if order == Descending {
			return -d
		}
		return d
	})
}

// RankMappings ranks mappings by pair count.
func RankMappings(ms []Mapping, order SortOrder) {
	Rank(ms, order, Mapping.Size)
}

//Personal.AI order the ending
