// Package skills fills every skill slot of a resume with a unique, non-empty token.
package skills

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Set is the running set of skill tokens for one enhancement run.
// Comparisons are case-insensitive; stored values keep their case.
// A Set is owned by a single run and must not be shared between goroutines.
type Set struct {
	seeded    map[string]bool
	committed map[string]bool
	values    []string
}

// NewSet seeds a Set with every non-empty existing skill value.
func NewSet(skills []types.SkillCategory) *Set {
	s := &Set{
		seeded:    make(map[string]bool),
		committed: make(map[string]bool),
	}
	for _, category := range skills {
		for _, item := range category.Items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			key := foldKey(item)
			if !s.seeded[key] {
				s.seeded[key] = true
				s.values = append(s.values, item)
			}
		}
	}
	return s
}

// Contains reports whether token was seeded or already committed.
func (s *Set) Contains(token string) bool {
	key := foldKey(token)
	return s.seeded[key] || s.committed[key]
}

// Committed reports whether an earlier slot already claimed token.
func (s *Set) Committed(token string) bool {
	return s.committed[foldKey(token)]
}

// Add commits token.
func (s *Set) Add(token string) {
	key := foldKey(token)
	if s.committed[key] {
		return
	}
	s.committed[key] = true
	if !s.seeded[key] {
		s.values = append(s.values, token)
	}
}

// Values returns the avoid-list: seeded values first, then tokens committed during the run.
func (s *Set) Values() []string {
	return append([]string(nil), s.values...)
}

// Len returns the number of distinct tokens in the set.
func (s *Set) Len() int {
	return len(s.values)
}

func foldKey(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
