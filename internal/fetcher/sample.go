package fetcher

import "github.com/amishk599/jobstats/internal/model"

// sampleAds is the bundled synthetic data set used when live data is disabled
// or unavailable.
var sampleAds = []model.Ad{
	{
		ID:              "sample-1",
		PublishDate:     model.Str("2025-09-01T10:00:00+02:00"),
		County:          model.Str("Stockholms län"),
		OccupationGroup: model.Str("Data/IT"),
	},
	{
		ID:              "sample-2",
		PublishDate:     model.Str("2025-09-01T11:30:00+02:00"),
		County:          model.Str("Västra Götalands län"),
		OccupationGroup: model.Str("Vård och omsorg"),
	},
	{
		ID:              "sample-3",
		PublishDate:     model.Str("2025-09-02T09:00:00+02:00"),
		County:          model.Str("Stockholms län"),
		OccupationGroup: model.Str("Data/IT"),
	},
}

// Sample returns up to limit ads from the bundled sample set, in order.
// The returned slice is a copy; callers may modify it.
func Sample(limit int) []model.Ad {
	if limit <= 0 {
		return []model.Ad{}
	}
	if limit > len(sampleAds) {
		limit = len(sampleAds)
	}
	out := make([]model.Ad, limit)
	copy(out, sampleAds[:limit])
	return out
}
