package view_test

import (
	"testing"

	"workboard/internal/domain"
	"workboard/internal/view"
)

func item(id, title, priority, st, created string) domain.WorkItem {
	return domain.WorkItem{
		ID:        id,
		Title:     title,
		Priority:  priority,
		Status:    st,
		CreatedAt: created,
	}
}

func ids(items []domain.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertOrder(t *testing.T, got []domain.WorkItem, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), ids(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
}

func TestSortNewestOldest(t *testing.T) {
	items := []domain.WorkItem{
		item("a", "t", "normal", "pending", "2024-01-01T00:00:00Z"),
		item("b", "t", "normal", "pending", "2024-01-03T00:00:00Z"),
		item("c", "t", "normal", "pending", "2024-01-02T00:00:00Z"),
	}
	got := view.Apply(items, view.Filter{}, view.SortNewest)
	assertOrder(t, got, "b", "c", "a")
	got = view.Apply(items, view.Filter{}, view.SortOldest)
	assertOrder(t, got, "a", "c", "b")
	// input untouched
	if items[0].ID != "a" {
		t.Error("Apply must not mutate its input")
	}
}

func TestSortPriorityStatusDate(t *testing.T) {
	items := []domain.WorkItem{
		item("late-normal", "t", "normal", "pending", "2024-01-05T00:00:00Z"),
		item("crit-done", "t", "critical", "done", "2024-01-01T00:00:00Z"),
		item("crit-pending", "t", "critical", "pending", "2024-01-01T00:00:00Z"),
		item("crit-pending-new", "t", "critical", "pending", "2024-01-02T00:00:00Z"),
	}
	got := view.Apply(items, view.Filter{}, view.SortPriorityStatusDate)
	// priority first, then status weight, then created desc
	assertOrder(t, got, "crit-pending-new", "crit-pending", "crit-done", "late-normal")
}

func TestSortStatusPriorityDate(t *testing.T) {
	items := []domain.WorkItem{
		item("done-crit", "t", "critical", "done", "2024-01-01T00:00:00Z"),
		item("pending-routine", "t", "routine", "pending", "2024-01-01T00:00:00Z"),
		item("pending-crit", "t", "critical", "pending", "2024-01-01T00:00:00Z"),
	}
	got := view.Apply(items, view.Filter{}, view.SortStatusPriorityDate)
	assertOrder(t, got, "pending-crit", "pending-routine", "done-crit")
}

func TestUnknownStatusSortsLast(t *testing.T) {
	items := []domain.WorkItem{
		item("weird", "t", "normal", "zzz custom", "2024-01-09T00:00:00Z"),
		item("plain", "t", "normal", "pending", "2024-01-01T00:00:00Z"),
	}
	got := view.Apply(items, view.Filter{}, view.SortStatusPriorityDate)
	assertOrder(t, got, "plain", "weird")
}

func TestFilterAndComposition(t *testing.T) {
	items := []domain.WorkItem{
		{ID: "1", Title: "Fix printer", Priority: "high", Status: "beklemede", CreatorName: "Ayşe", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "2", Title: "Replace toner", Priority: "high", Status: "done", CreatedAt: "2024-01-02T00:00:00Z"},
		{ID: "3", Title: "Printer driver", Priority: "low", Status: "pending", CreatedAt: "2024-01-03T00:00:00Z"},
	}
	got := view.Apply(items, view.Filter{Search: "printer"}, view.SortNewest)
	assertOrder(t, got, "3", "1")
	// status filter matches the normalized key, raw text may be localized
	got = view.Apply(items, view.Filter{Status: "pending"}, view.SortNewest)
	assertOrder(t, got, "3", "1")
	got = view.Apply(items, view.Filter{Status: "pending", Priority: "high"}, view.SortNewest)
	assertOrder(t, got, "1")
	got = view.Apply(items, view.Filter{Search: "printer", Status: "pending", Priority: "low"}, view.SortNewest)
	assertOrder(t, got, "3")
}

func TestFilterSearchCoversAssignees(t *testing.T) {
	items := []domain.WorkItem{
		{ID: "1", Title: "one", Status: "pending", Assignees: []string{"mehmet"}, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "2", Title: "two", Status: "pending", Assignees: []string{"zeynep"}, CreatedAt: "2024-01-02T00:00:00Z"},
	}
	got := view.Apply(items, view.Filter{Search: "MEHMET"}, view.SortNewest)
	assertOrder(t, got, "1")
}
