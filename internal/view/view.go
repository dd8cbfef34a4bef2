// Package view provides deterministic in-memory ordering and predicate
// filtering over a materialized item list. It never mutates its input, so a
// snapshot may be shared across concurrent callers.
package view

import (
	"sort"
	"strings"

	"workboard/internal/domain"
	"workboard/internal/status"
)

type SortMode string

const (
	SortNewest             SortMode = "newest"
	SortOldest             SortMode = "oldest"
	SortPriorityStatusDate SortMode = "priority_status_date"
	SortStatusPriorityDate SortMode = "status_priority_date"
)

// Filter is AND-composed: every non-zero field must match.
type Filter struct {
	Search   string // case-insensitive substring over id, title, requester and assignee names
	Status   string // exact canonical status
	Priority string // exact priority
}

func searchKey(it domain.WorkItem) string {
	parts := []string{it.ID, it.Title, it.CreatorName}
	parts = append(parts, it.Assignees...)
	return strings.ToLower(strings.Join(parts, " "))
}

func (f Filter) matches(it domain.WorkItem) bool {
	if f.Search != "" && !strings.Contains(searchKey(it), strings.ToLower(f.Search)) {
		return false
	}
	if f.Status != "" && string(status.Normalize(it.Status)) != f.Status {
		return false
	}
	if f.Priority != "" && it.Priority != f.Priority {
		return false
	}
	return true
}

// Apply filters then sorts a copy of the input.
func Apply(items []domain.WorkItem, f Filter, mode SortMode) []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(items))
	for _, it := range items {
		if f.matches(it) {
			out = append(out, it)
		}
	}
	Sort(out, mode)
	return out
}

// Sort orders items in place. Every mode tie-breaks on creation date
// descending.
func Sort(items []domain.WorkItem, mode SortMode) {
	less := byCreatedDesc
	switch mode {
	case SortOldest:
		less = func(a, b domain.WorkItem) bool { return a.CreatedAt < b.CreatedAt }
	case SortPriorityStatusDate:
		less = func(a, b domain.WorkItem) bool {
			if pw := status.PriorityWeight(a.Priority) - status.PriorityWeight(b.Priority); pw != 0 {
				return pw < 0
			}
			if sw := status.Weight(a.Status) - status.Weight(b.Status); sw != 0 {
				return sw < 0
			}
			return byCreatedDesc(a, b)
		}
	case SortStatusPriorityDate:
		less = func(a, b domain.WorkItem) bool {
			if sw := status.Weight(a.Status) - status.Weight(b.Status); sw != 0 {
				return sw < 0
			}
			if pw := status.PriorityWeight(a.Priority) - status.PriorityWeight(b.Priority); pw != 0 {
				return pw < 0
			}
			return byCreatedDesc(a, b)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func byCreatedDesc(a, b domain.WorkItem) bool {
	return a.CreatedAt > b.CreatedAt
}
