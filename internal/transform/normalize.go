package transform

import (
	"strings"
	"time"

	"github.com/amishk599/jobstats/internal/model"
)

// DateLayout is the calendar-date form used for aggregation keys.
const DateLayout = "2006-01-02"

// Layouts tried in order when reading a publish date. Zoned forms keep the
// date as written rather than converting to UTC.
var publishDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseDate reduces a date-like string to YYYY-MM-DD. It returns nil when the
// value is missing or matches none of the known layouts.
func ParseDate(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range publishDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := t.Format(DateLayout)
			return &d
		}
	}
	return nil
}

// Normalize maps ads to aggregation rows, one per input and in input order.
// Unparsable dates become nil; county and occupation group pass through.
func Normalize(ads []model.Ad) []model.NormalizedAd {
	rows := make([]model.NormalizedAd, 0, len(ads))
	for _, ad := range ads {
		rows = append(rows, model.NormalizedAd{
			ID:              ad.ID,
			Date:            ParseDate(ad.PublishDate),
			County:          ad.County,
			OccupationGroup: ad.OccupationGroup,
		})
	}
	return rows
}
