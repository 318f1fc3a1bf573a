package transform

import "github.com/amishk599/jobstats/internal/model"

// Aggregate counts rows per (date, county, occupation group). Nil key parts
// form their own groups. Groups come out in first-seen order.
func Aggregate(rows []model.NormalizedAd) []model.DailyAggregate {
	index := make(map[model.AggregateKey]int)
	var out []model.DailyAggregate

	for _, r := range rows {
		key := model.KeyOf(r.Date, r.County, r.OccupationGroup)
		if i, ok := index[key]; ok {
			out[i].AdCount++
			continue
		}
		index[key] = len(out)
		out = append(out, model.DailyAggregate{
			Date:            r.Date,
			County:          r.County,
			OccupationGroup: r.OccupationGroup,
			AdCount:         1,
		})
	}
	return out
}
