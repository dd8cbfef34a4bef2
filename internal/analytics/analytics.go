// Package analytics folds a materialized item snapshot plus a reporting
// window into SLA KPIs and a daily time series. Pure: no store access, no
// mutation of the input.
package analytics

import (
	"workboard/internal/dates"
	"workboard/internal/domain"
	"workboard/internal/status"
)

// maxSeriesDays caps the generated day range as a runaway guard.
const maxSeriesDays = 400

type KPIs struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	OverdueOpen int `json:"overdue_open"`
	Done        int `json:"done"`
	OnTimeDone  int `json:"on_time_done"`
	LateDone    int `json:"late_done"`
	// OnTimeRate is nil when no done item has both dates resolvable —
	// undefined, not zero. Callers render a placeholder.
	OnTimeRate *float64 `json:"on_time_rate,omitempty"`
	// AvgResolutionDays averages per-item rounded day counts; nil when no
	// item qualifies.
	AvgResolutionDays *float64 `json:"avg_resolution_days,omitempty"`
	// DoneButNoClosed counts done items whose close date could not be
	// resolved: a data-quality signal surfaced, never an error.
	DoneButNoClosed int `json:"done_but_no_closed"`
}

type DayBucket struct {
	Day        string `json:"day"`
	Opened     int    `json:"opened"`
	Closed     int    `json:"closed"`
	LateClosed int    `json:"late_closed"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type Report struct {
	From         string        `json:"from"`
	To           string        `json:"to"`
	KPIs         KPIs          `json:"kpis"`
	Series       []DayBucket   `json:"series"`
	Distribution []StatusCount `json:"distribution"`
}

// Overdue derives the overdue flag: not terminal and due before today. It is
// time-dependent and flips with the today argument alone.
func Overdue(it domain.WorkItem, today string) bool {
	return !status.Normalize(it.Status).IsTerminal() && it.DueAt != "" && it.DueAt < today
}

// Compute builds the report for items created within [from, to]. today is
// independent of the window and drives the overdue derivation only.
func Compute(items []domain.WorkItem, from, to, today string) Report {
	rep := Report{From: from, To: to, Series: []DayBucket{}, Distribution: []StatusCount{}}

	// Window filter keys off the creation date, never due or close dates.
	var window []domain.WorkItem
	for _, it := range items {
		created := dates.DateOf(it.CreatedAt)
		if created != "" && created >= from && created <= to {
			window = append(window, it)
		}
	}

	var (
		resolutionSum   int
		resolutionCount int
	)
	rep.KPIs.Total = len(window)
	counts := map[status.Key]int{}
	for _, it := range window {
		key := status.Normalize(it.Status)
		counts[key]++
		switch key {
		case status.Open, status.InProgress, status.Pending:
			rep.KPIs.Active++
		}
		if Overdue(it, today) {
			rep.KPIs.OverdueOpen++
		}
		if key != status.Done {
			continue
		}
		rep.KPIs.Done++
		closedDate := ""
		if it.ClosedAt != nil {
			closedDate = dates.DateOf(*it.ClosedAt)
		}
		if closedDate == "" || dates.DateOf(it.CreatedAt) == "" {
			rep.KPIs.DoneButNoClosed++
			continue
		}
		if closedDate <= it.DueAt {
			rep.KPIs.OnTimeDone++
		} else {
			rep.KPIs.LateDone++
		}
		// Round per item first, then average: averaging raw differences
		// and rounding once at the end gives a different number.
		if days, ok := dates.RoundedDaysBetween(it.CreatedAt, *it.ClosedAt); ok {
			resolutionSum += days
			resolutionCount++
		}
	}
	if denom := rep.KPIs.OnTimeDone + rep.KPIs.LateDone; denom > 0 {
		rate := float64(rep.KPIs.OnTimeDone) / float64(denom)
		rep.KPIs.OnTimeRate = &rate
	}
	if resolutionCount > 0 {
		avg := float64(resolutionSum) / float64(resolutionCount)
		rep.KPIs.AvgResolutionDays = &avg
	}

	// Daily series. Close events dated outside the generated range are
	// dropped from the series even though the window KPIs above count them;
	// sum(series.closed) may therefore be less than on_time + late.
	days := dates.Range(from, to, maxSeriesDays)
	index := make(map[string]int, len(days))
	for i, d := range days {
		rep.Series = append(rep.Series, DayBucket{Day: d})
		index[d] = i
	}
	for _, it := range window {
		if i, ok := index[dates.DateOf(it.CreatedAt)]; ok {
			rep.Series[i].Opened++
		}
		if it.ClosedAt == nil {
			continue
		}
		closedDate := dates.DateOf(*it.ClosedAt)
		if i, ok := index[closedDate]; ok {
			rep.Series[i].Closed++
			if closedDate > it.DueAt {
				rep.Series[i].LateClosed++
			}
		}
	}

	for _, key := range append(append([]status.Key{}, status.All...), status.Open) {
		if n := counts[key]; n > 0 {
			rep.Distribution = append(rep.Distribution, StatusCount{Status: string(key), Count: n})
		}
	}
	return rep
}
