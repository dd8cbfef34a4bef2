package analytics_test

import (
	"testing"

	"workboard/internal/analytics"
	"workboard/internal/domain"
)

func ptr(s string) *string { return &s }

func doneItem(id, created, closed, due string) domain.WorkItem {
	return domain.WorkItem{
		ID:        id,
		Status:    "done",
		CreatedAt: created,
		ClosedAt:  ptr(closed),
		DueAt:     due,
	}
}

func TestComputeWindowFiltersOnCreation(t *testing.T) {
	items := []domain.WorkItem{
		{ID: "in", Status: "pending", CreatedAt: "2024-01-10T08:00:00Z", DueAt: "2024-02-01"},
		{ID: "before", Status: "pending", CreatedAt: "2023-12-31T23:00:00Z", DueAt: "2024-02-01"},
		{ID: "after", Status: "pending", CreatedAt: "2024-02-01T00:00:00Z", DueAt: "2024-03-01"},
		{ID: "badstamp", Status: "pending", CreatedAt: "not a time", DueAt: "2024-02-01"},
	}
	rep := analytics.Compute(items, "2024-01-01", "2024-01-31", "2024-01-15")
	if rep.KPIs.Total != 1 {
		t.Fatalf("total = %d, want 1", rep.KPIs.Total)
	}
}

func TestComputeOnTimeRate(t *testing.T) {
	items := []domain.WorkItem{
		doneItem("on1", "2024-01-02T09:00:00Z", "2024-01-05T09:00:00Z", "2024-01-05"),
		doneItem("on2", "2024-01-02T09:00:00Z", "2024-01-04T09:00:00Z", "2024-01-10"),
		doneItem("late", "2024-01-02T09:00:00Z", "2024-01-09T09:00:00Z", "2024-01-05"),
	}
	rep := analytics.Compute(items, "2024-01-01", "2024-01-31", "2024-01-31")
	if rep.KPIs.Done != 3 || rep.KPIs.OnTimeDone != 2 || rep.KPIs.LateDone != 1 {
		t.Fatalf("done=%d on=%d late=%d", rep.KPIs.Done, rep.KPIs.OnTimeDone, rep.KPIs.LateDone)
	}
	if rep.KPIs.OnTimeRate == nil {
		t.Fatal("rate should be defined")
	}
	if got := *rep.KPIs.OnTimeRate; got < 0.66 || got > 0.67 {
		t.Errorf("rate = %v, want 2/3", got)
	}
}

func TestComputeOnTimeRateUndefinedNotZero(t *testing.T) {
	items := []domain.WorkItem{
		{ID: "open1", Status: "pending", CreatedAt: "2024-01-02T00:00:00Z", DueAt: "2024-01-20"},
		// done but close stamp missing: excluded from the rate, counted separately
		{ID: "noclose", Status: "done", CreatedAt: "2024-01-03T00:00:00Z", DueAt: "2024-01-20"},
	}
	rep := analytics.Compute(items, "2024-01-01", "2024-01-31", "2024-01-15")
	if rep.KPIs.OnTimeRate != nil {
		t.Errorf("rate = %v, want nil", *rep.KPIs.OnTimeRate)
	}
	if rep.KPIs.DoneButNoClosed != 1 {
		t.Errorf("done_but_no_closed = %d, want 1", rep.KPIs.DoneButNoClosed)
	}
}

func TestComputeAvgResolutionRoundsPerItem(t *testing.T) {
	// A resolves in 2 rounded days, B in 1: the average over rounded values
	// is exactly 1.5.
	items := []domain.WorkItem{
		doneItem("a", "2024-01-01T09:00:00Z", "2024-01-03T10:00:00Z", "2024-01-10"),
		doneItem("b", "2024-01-01T09:00:00Z", "2024-01-02T11:00:00Z", "2024-01-10"),
	}
	rep := analytics.Compute(items, "2024-01-01", "2024-01-31", "2024-01-31")
	if rep.KPIs.AvgResolutionDays == nil {
		t.Fatal("avg should be defined")
	}
	if got := *rep.KPIs.AvgResolutionDays; got != 1.5 {
		t.Errorf("avg = %v, want 1.5", got)
	}
}

func TestComputeSeries(t *testing.T) {
	items := []domain.WorkItem{
		doneItem("a", "2024-01-02T09:00:00Z", "2024-01-03T09:00:00Z", "2024-01-02"),
		{ID: "b", Status: "pending", CreatedAt: "2024-01-02T10:00:00Z", DueAt: "2024-01-20"},
		// closes after the window end: dropped from the series, kept in KPIs
		doneItem("c", "2024-01-03T09:00:00Z", "2024-02-10T09:00:00Z", "2024-01-05"),
	}
	rep := analytics.Compute(items, "2024-01-01", "2024-01-04", "2024-01-31")
	if len(rep.Series) != 4 {
		t.Fatalf("series len = %d, want 4", len(rep.Series))
	}
	opened := 0
	closed := 0
	for _, b := range rep.Series {
		opened += b.Opened
		closed += b.Closed
	}
	if opened != rep.KPIs.Total {
		t.Errorf("sum(opened) = %d, want total %d", opened, rep.KPIs.Total)
	}
	if closed != 1 {
		t.Errorf("sum(closed) = %d, want 1 (out-of-range close dropped)", closed)
	}
	if rep.KPIs.Done != 2 {
		t.Errorf("done = %d, want 2 (KPIs keep the out-of-range close)", rep.KPIs.Done)
	}
	day3 := rep.Series[2]
	if day3.Day != "2024-01-03" || day3.Closed != 1 || day3.LateClosed != 1 {
		t.Errorf("day3 = %+v", day3)
	}
}

func TestComputeEmptyWindow(t *testing.T) {
	items := []domain.WorkItem{
		{ID: "x", Status: "pending", CreatedAt: "2024-01-02T00:00:00Z", DueAt: "2024-01-20"},
	}
	rep := analytics.Compute(items, "2024-02-01", "2024-01-01", "2024-01-15")
	if rep.KPIs.Total != 0 || len(rep.Series) != 0 {
		t.Errorf("inverted window: total=%d series=%d", rep.KPIs.Total, len(rep.Series))
	}
}

func TestComputeSeriesCap(t *testing.T) {
	rep := analytics.Compute(nil, "2020-01-01", "2025-12-31", "2024-01-01")
	if len(rep.Series) != 400 {
		t.Errorf("series len = %d, want 400", len(rep.Series))
	}
}

func TestOverdueFlipsWithToday(t *testing.T) {
	it := domain.WorkItem{ID: "x", Status: "in_progress", DueAt: "2024-01-10"}
	if analytics.Overdue(it, "2024-01-10") {
		t.Error("not overdue on the due day")
	}
	if !analytics.Overdue(it, "2024-01-11") {
		t.Error("overdue the day after")
	}
	it.Status = "tamamlandı"
	if analytics.Overdue(it, "2024-01-11") {
		t.Error("terminal items never count as overdue")
	}
}
