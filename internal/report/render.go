package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/transform"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	numberCellStyle = cellStyle.Align(lipgloss.Right)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Options selects the sizes used when rendering a full report.
type Options struct {
	TopN    int
	Window  int
	Horizon int
}

// Section is one titled table of a rendered report.
type Section struct {
	Title string
	Table string
}

// Sections renders every report view as a titled table.
func (r *Report) Sections(opts Options, f Forecaster) []Section {
	var out []Section
	add := func(title string, t *table.Table) {
		out = append(out, Section{Title: title, Table: t.String()})
	}

	add("Ads per date", TotalsTable(r.DailyTotals()))
	add(fmt.Sprintf("Top %d occupation groups", opts.TopN), TopTable("occupation group", r.Top(ByOccupation, opts.TopN)))
	add(fmt.Sprintf("Top %d counties", opts.TopN), TopTable("county", r.Top(ByCounty, opts.TopN)))
	add(fmt.Sprintf("Occupation trend, last %d days", opts.Window), TrendTable("occupation group", headTail(r.Trend(ByOccupation, opts.Window), opts.TopN)))
	add(fmt.Sprintf("County trend, last %d days", opts.Window), TrendTable("county", headTail(r.Trend(ByCounty, opts.Window), opts.TopN)))

	fc := r.Forecast(f, opts.Horizon)
	add(fmt.Sprintf("Forecast, next %d days", opts.Horizon), ForecastTable(fc.Total))
	occ := fc.Occupations
	if len(occ) > opts.TopN {
		occ = occ[:opts.TopN]
	}
	add("Forecast by occupation group", OccupationForecastTable(opts.Horizon, occ))
	return out
}

// Render writes all sections to w.
func (r *Report) Render(w io.Writer, opts Options, f Forecaster) error {
	if r.Rows() == 0 {
		_, err := fmt.Fprintln(w, "No aggregate rows yet. Run `jobstats run` first.")
		return err
	}
	for _, s := range r.Sections(opts, f) {
		if _, err := fmt.Fprintln(w, sectionStyle.Render(s.Title)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, s.Table); err != nil {
			return err
		}
	}
	return nil
}

// TotalsTable renders daily totals.
func TotalsTable(days []DayTotal) *table.Table {
	rows := make([][]string, len(days))
	for i, d := range days {
		rows[i] = []string{d.Date.Format(transform.DateLayout), strconv.Itoa(d.Count)}
	}
	return newTable([]string{"date", "ads"}, rows, 1)
}

// TopTable renders a ranking.
func TopTable(label string, top []LabelCount) *table.Table {
	rows := make([][]string, len(top))
	for i, c := range top {
		rows[i] = []string{strconv.Itoa(i + 1), c.Label, strconv.Itoa(c.Count)}
	}
	return newTable([]string{"#", label, "ads"}, rows, 0, 2)
}

// TrendTable renders trend rows.
func TrendTable(label string, trend []TrendRow) *table.Table {
	rows := make([][]string, len(trend))
	for i, t := range trend {
		rows[i] = []string{t.Label, strconv.Itoa(t.Start), strconv.Itoa(t.End), fmt.Sprintf("%+d", t.Delta), formatPct(t.Pct)}
	}
	return newTable([]string{label, "start", "end", "delta", "pct"}, rows, 1, 2, 3, 4)
}

// ForecastTable renders the total forecast.
func ForecastTable(points []DayValue) *table.Table {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.Date.Format(transform.DateLayout), strconv.FormatFloat(p.Value, 'f', 1, 64)}
	}
	return newTable([]string{"date", "forecast"}, rows, 1)
}

// OccupationForecastTable renders the per-occupation forecast.
func OccupationForecastTable(horizon int, occ []OccupationForecast) *table.Table {
	rows := make([][]string, len(occ))
	for i, o := range occ {
		rows[i] = []string{
			o.Label,
			strconv.FormatFloat(o.Hist, 'f', 0, 64),
			strconv.FormatFloat(o.Forecast, 'f', 1, 64),
			strconv.FormatFloat(o.Delta, 'f', 1, 64),
			formatPct(o.Pct),
		}
	}
	headers := []string{
		"occupation group",
		fmt.Sprintf("last %dd", horizon),
		fmt.Sprintf("next %dd", horizon),
		"delta",
		"pct",
	}
	return newTable(headers, rows, 1, 2, 3, 4)
}

// AggregateTable renders stored aggregate rows with nulls shown as blanks.
func AggregateTable(rows []model.DailyAggregate) *table.Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{model.Deref(r.Date), model.Deref(r.County), model.Deref(r.OccupationGroup), strconv.Itoa(r.AdCount)}
	}
	return newTable([]string{"date", "county", "occupation_group", "ad_count"}, out, 3)
}

func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case right[col]:
				return numberCellStyle
			default:
				return cellStyle
			}
		})
}

// headTail keeps the n biggest gains and n biggest drops.
func headTail(rows []TrendRow, n int) []TrendRow {
	if n <= 0 || len(rows) <= 2*n {
		return rows
	}
	out := make([]TrendRow, 0, 2*n)
	out = append(out, rows[:n]...)
	return append(out, rows[len(rows)-n:]...)
}

func formatPct(p *float64) string {
	if p == nil {
		return "-"
	}
	return strings.TrimSuffix(strconv.FormatFloat(*p*100, 'f', 1, 64), ".0") + "%"
}
