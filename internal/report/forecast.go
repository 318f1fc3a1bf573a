package report

import (
	"cmp"
	"slices"
	"time"
)

const (
	// DefaultLookback is how many trailing observations the mean forecaster averages.
	DefaultLookback = 7

	candidateDays  = 14
	candidateCount = 15
)

// Forecaster predicts the next horizon values of a daily series.
type Forecaster interface {
	Forecast(history []float64, horizon int) []float64
}

// MeanForecaster repeats the mean of the last Lookback observations.
type MeanForecaster struct {
	Lookback int
}

// Forecast implements Forecaster. An empty history forecasts zeros.
func (m MeanForecaster) Forecast(history []float64, horizon int) []float64 {
	if horizon <= 0 {
		return nil
	}
	lookback := m.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	tail := history[max(len(history)-lookback, 0):]
	var mean float64
	if len(tail) > 0 {
		mean = sum(tail) / float64(len(tail))
	}

	out := make([]float64, horizon)
	for i := range out {
		out[i] = mean
	}
	return out
}

// DayValue is one forecast point.
type DayValue struct {
	Date  time.Time
	Value float64
}

// OccupationForecast compares the recent history of one occupation group with
// its forecast over the same number of days.
type OccupationForecast struct {
	Label    string
	Hist     float64 // sum of the last horizon observed days
	Forecast float64 // sum of the forecast horizon
	Delta    float64
	Pct      *float64 // nil when Hist is zero
}

// ForecastResult holds the total and per-occupation predictions.
type ForecastResult struct {
	Horizon     int
	History     []DayTotal // gap-filled daily totals
	Total       []DayValue
	Occupations []OccupationForecast
}

// Forecast predicts daily totals for the next horizon days and ranks the most
// active occupation groups of the last two weeks by forecast volume.
func (r *Report) Forecast(f Forecaster, horizon int) ForecastResult {
	res := ForecastResult{Horizon: horizon}
	last, ok := r.lastDate()
	if !ok || horizon <= 0 {
		return res
	}

	totals := make(map[time.Time]int)
	for i, row := range r.rows {
		if !r.dates[i].IsZero() {
			totals[r.dates[i]] += row.AdCount
		}
	}
	res.History = fillDays(totals)
	res.Total = datedForecast(f, res.History, horizon)

	for _, c := range r.candidates(last) {
		series := r.seriesFor(c.Label)
		values := counts(series)
		hist := sum(values[max(len(values)-horizon, 0):])
		pred := sum(f.Forecast(values, horizon))

		row := OccupationForecast{
			Label:    c.Label,
			Hist:     hist,
			Forecast: pred,
			Delta:    pred - hist,
		}
		if hist > 0 {
			pct := (pred - hist) / hist
			row.Pct = &pct
		}
		res.Occupations = append(res.Occupations, row)
	}

	slices.SortStableFunc(res.Occupations, func(a, b OccupationForecast) int {
		return cmp.Compare(b.Forecast, a.Forecast)
	})
	return res
}

// candidates returns the busiest occupation groups over the last two weeks.
func (r *Report) candidates(last time.Time) []LabelCount {
	cutoff := last.AddDate(0, 0, -(candidateDays - 1))
	sums := make(map[string]int)
	for i, row := range r.rows {
		if r.dates[i].IsZero() || r.dates[i].Before(cutoff) {
			continue
		}
		sums[ByOccupation.label(row)] += row.AdCount
	}
	return topN(sums, candidateCount)
}

// seriesFor returns the gap-filled daily series of one occupation group,
// spanning that group's own first to last date.
func (r *Report) seriesFor(label string) []DayTotal {
	byDate := make(map[time.Time]int)
	for i, row := range r.rows {
		if r.dates[i].IsZero() || ByOccupation.label(row) != label {
			continue
		}
		byDate[r.dates[i]] += row.AdCount
	}
	return fillDays(byDate)
}

func datedForecast(f Forecaster, history []DayTotal, horizon int) []DayValue {
	values := f.Forecast(counts(history), horizon)
	start := history[len(history)-1].Date
	out := make([]DayValue, len(values))
	for i, v := range values {
		out[i] = DayValue{Date: start.AddDate(0, 0, i+1), Value: v}
	}
	return out
}

// fillDays turns sparse per-date counts into a contiguous daily series with
// zeros for missing days.
func fillDays(byDate map[time.Time]int) []DayTotal {
	sparse := sortedTotals(byDate)
	if len(sparse) == 0 {
		return nil
	}
	first, last := sparse[0].Date, sparse[len(sparse)-1].Date
	var out []DayTotal
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayTotal{Date: d, Count: byDate[d]})
	}
	return out
}

func counts(days []DayTotal) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = float64(d.Count)
	}
	return out
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
