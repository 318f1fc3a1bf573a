// Package report derives totals, rankings, trends and a short forecast from
// the stored daily aggregates.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/transform"
)

// UnknownLabel stands in for a null county or occupation group.
const UnknownLabel = "(unknown)"

// Dimension selects which aggregate column a ranking or trend groups by.
type Dimension int

const (
	ByOccupation Dimension = iota
	ByCounty
)

// String returns the column name of the dimension.
func (d Dimension) String() string {
	if d == ByCounty {
		return "county"
	}
	return "occupation_group"
}

func (d Dimension) label(row model.DailyAggregate) string {
	v := row.OccupationGroup
	if d == ByCounty {
		v = row.County
	}
	if v == nil {
		return UnknownLabel
	}
	return *v
}

// DayTotal is the summed ad count for one calendar date.
type DayTotal struct {
	Date  time.Time
	Count int
}

// LabelCount is a summed ad count for one county or occupation group.
type LabelCount struct {
	Label string
	Count int
}

// TrendRow compares a label's count at the start and end of a window.
type TrendRow struct {
	Label string
	Start int
	End   int
	Delta int
	Pct   *float64 // nil when no relative change is defined
}

// Report answers questions over a snapshot of aggregate rows.
type Report struct {
	rows  []model.DailyAggregate
	dates []time.Time // parsed row dates; zero for null or unparseable
}

// New builds a report over rows. Rows without a valid date still count toward
// rankings but are left out of every date-based view.
func New(rows []model.DailyAggregate) *Report {
	r := &Report{rows: rows, dates: make([]time.Time, len(rows))}
	for i, row := range rows {
		if row.Date == nil {
			continue
		}
		if t, err := time.Parse(transform.DateLayout, *row.Date); err == nil {
			r.dates[i] = t
		}
	}
	return r
}

// Rows returns the number of aggregate rows in the snapshot.
func (r *Report) Rows() int { return len(r.rows) }

// DailyTotals sums ad counts per date in ascending date order.
func (r *Report) DailyTotals() []DayTotal {
	sums := make(map[time.Time]int)
	for i, row := range r.rows {
		if r.dates[i].IsZero() {
			continue
		}
		sums[r.dates[i]] += row.AdCount
	}
	return sortedTotals(sums)
}

// Top ranks labels of dim by total ad count, highest first, ties by label.
func (r *Report) Top(dim Dimension, n int) []LabelCount {
	sums := make(map[string]int)
	for _, row := range r.rows {
		sums[dim.label(row)] += row.AdCount
	}
	return topN(sums, n)
}

// Trend compares each label's count on the first and last date that has data
// inside the window of days ending at the latest date. Rows are ordered by
// delta, largest gain first.
func (r *Report) Trend(dim Dimension, window int) []TrendRow {
	last, ok := r.lastDate()
	if !ok || window < 1 {
		return nil
	}
	from := last.AddDate(0, 0, -(window - 1))

	counts := make(map[string]map[time.Time]int)
	var axisStart time.Time
	for i, row := range r.rows {
		d := r.dates[i]
		if d.IsZero() || d.Before(from) || d.After(last) {
			continue
		}
		if axisStart.IsZero() || d.Before(axisStart) {
			axisStart = d
		}
		label := dim.label(row)
		if counts[label] == nil {
			counts[label] = make(map[time.Time]int)
		}
		counts[label][d] += row.AdCount
	}

	out := make([]TrendRow, 0, len(counts))
	for label, byDate := range counts {
		start, end := byDate[axisStart], byDate[last]
		out = append(out, TrendRow{
			Label: label,
			Start: start,
			End:   end,
			Delta: end - start,
			Pct:   changePct(float64(start), float64(end)),
		})
	}
	slices.SortFunc(out, func(a, b TrendRow) int {
		if c := cmp.Compare(b.Delta, a.Delta); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

func (r *Report) lastDate() (time.Time, bool) {
	var last time.Time
	for _, d := range r.dates {
		if d.After(last) {
			last = d
		}
	}
	return last, !last.IsZero()
}

// changePct is the relative change from start to end. A rise from zero counts
// as 100%; anything else from zero is undefined.
func changePct(start, end float64) *float64 {
	var pct float64
	switch {
	case start > 0:
		pct = (end - start) / start
	case end > 0:
		pct = 1.0
	default:
		return nil
	}
	return &pct
}

func sortedTotals(sums map[time.Time]int) []DayTotal {
	out := make([]DayTotal, 0, len(sums))
	for d, n := range sums {
		out = append(out, DayTotal{Date: d, Count: n})
	}
	slices.SortFunc(out, func(a, b DayTotal) int { return a.Date.Compare(b.Date) })
	return out
}

func topN(sums map[string]int, n int) []LabelCount {
	out := make([]LabelCount, 0, len(sums))
	for label, count := range sums {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	slices.SortFunc(out, func(a, b LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
