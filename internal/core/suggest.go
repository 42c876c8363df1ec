package core

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Suggest returns up to n identifiers that look like near misses for
// pattern, closest first
func (t *Tome) Suggest(pattern string, n int) ([]string, error) {
	if pattern == "" {
		return nil, ErrInvalidArgument
	}
	ids, err := t.IDs()
	if err != nil {
		return nil, err
	}
	return Nearest(pattern, ids, n), nil
}

// Nearest ranks ids by edit distance to pattern. An identifier is compared
// as a whole and by its parts (split on '@' and '.'), keeping the best
// score, so "gmial" is close to "alice@gmail.com".
func Nearest(pattern string, ids []string, n int) []string {
	if n <= 0 || pattern == "" {
		return nil
	}

	type candidate struct {
		id   string
		dist int
	}

	dmp := diffmatchpatch.New()
	pattern = strings.ToLower(pattern)
	limit := max(2, len(pattern)/3)

	var candidates []candidate
	for _, id := range ids {
		lower := strings.ToLower(id)
		parts := append([]string{lower}, strings.FieldsFunc(lower, func(r rune) bool {
			return r == '@' || r == '.'
		})...)

		best := -1
		for _, part := range parts {
			d := dmp.DiffLevenshtein(dmp.DiffMain(pattern, part, false))
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= limit {
			candidates = append(candidates, candidate{id: id, dist: best})
		}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.id, b.id)
	})

	result := make([]string, 0, min(n, len(candidates)))
	for _, c := range candidates[:min(n, len(candidates))] {
		result = append(result, c.id)
	}
	return result
}
