package pagination

import (
	"fmt"
	"sort"
	"strings"
)

// LessFunc reports whether a sorts before b in ascending order.
type LessFunc[T any] func(a, b T) bool

// Sorter sorts result sets by a named field.
type Sorter[T any] struct {
	fields map[string]LessFunc[T]
}

// NewSorter returns a Sorter over the given fields.
func NewSorter[T any](fields map[string]LessFunc[T]) *Sorter[T] {
	return &Sorter[T]{fields: fields}
}

// Fields returns the valid field names in alphabetical order.
func (s *Sorter[T]) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sort returns a sorted copy of items according to expr. An empty expression
// returns items unchanged.
func (s *Sorter[T]) Sort(items []T, expr string) ([]T, error) {
	field, order, err := ParseSort(expr)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return items, nil
	}

	less, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(s.Fields(), ", "))
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == SortOrderDesc {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted, nil
}
