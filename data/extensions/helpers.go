package extensions

import (
	"fmt"
	"slices"
	"time"
)

// FilterMultiple return all elements that satisfy the predicate
func FilterMultiple[T any](elements []T, predicate func(T) bool) (results []T) {
	for _, element := range elements {
		if predicate(element) {
			results = append(results, element)
		}
	}
	return
}

// FilterSingle return the single element that satisfies the predicate.
// If zero or more than one, default T and an error is returned.
func FilterSingle[T any](elements []T, predicate func(T) bool) (T, error) {
	res := FilterMultiple(elements, predicate)

	if len(res) != 1 {
		var zero T
		return zero, fmt.Errorf("error getting single, found %d matches", len(res))
	}

	return res[0], nil
}

// Map applies f to every element, keeping order
func Map[T, U any](elements []T, f func(T) U) []U {
	res := make([]U, len(elements))
	for i, element := range elements {
		res[i] = f(element)
	}
	return res
}

// Unique drops repeated elements, first occurrence wins
func Unique[T comparable](elements []T) []T {
	seen := make(map[T]bool, len(elements))
	res := make([]T, 0, len(elements))
	for _, element := range elements {
		if seen[element] {
			continue
		}
		seen[element] = true
		res = append(res, element)
	}
	return res
}

// ToDate truncates a time to its calendar day at midnight UTC, so it can be used as a join key
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortedDates returns the keys of a date keyed map in ascending order
func SortedDates[T any](values map[time.Time]T) []time.Time {
	dates := make([]time.Time, 0, len(values))
	for d := range values {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(i, j time.Time) int {
		return i.Compare(j)
	})
	return dates
}

// FmtShort formats a time in a date only string
func FmtShort(t time.Time) string {
	return t.Format(time.DateOnly)
}
