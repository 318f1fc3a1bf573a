package filter

import (
	"time"

	"github.com/amishk599/jobstats/internal/model"
)

const dateLayout = "2006-01-02"

// SinceFilter keeps ads published on or after a UTC calendar cutoff.
// The comparison is on the YYYY-MM-DD prefix of the raw publish date, so an ad
// without a publish date never passes.
type SinceFilter struct {
	cutoff string
}

// NewSinceFilter returns a filter whose cutoff is the UTC date days before now.
func NewSinceFilter(now time.Time, days int) *SinceFilter {
	return &SinceFilter{cutoff: now.UTC().AddDate(0, 0, -days).Format(dateLayout)}
}

// Cutoff returns the cutoff date in YYYY-MM-DD form.
func (f *SinceFilter) Cutoff() string { return f.cutoff }

// Match reports whether the ad's date prefix sorts at or after the cutoff.
func (f *SinceFilter) Match(ad model.Ad) bool {
	return datePrefix(ad.PublishDate) >= f.cutoff
}

func datePrefix(s *string) string {
	v := model.Deref(s)
	if len(v) > len(dateLayout) {
		return v[:len(dateLayout)]
	}
	return v
}

// HasIDFilter drops ads without an identifier.
type HasIDFilter struct{}

// Match reports whether the ad has a non-empty id.
func (HasIDFilter) Match(ad model.Ad) bool { return ad.ID != "" }

// All matches when every filter matches. An empty All matches everything.
type All []model.AdFilter

// Match returns true if every contained filter matches the ad.
func (a All) Match(ad model.Ad) bool {
	for _, f := range a {
		if !f.Match(ad) {
			return false
		}
	}
	return true
}

// Apply returns the ads that match f, preserving order.
func Apply(ads []model.Ad, f model.AdFilter) []model.Ad {
	out := make([]model.Ad, 0, len(ads))
	for _, ad := range ads {
		if f.Match(ad) {
			out = append(out, ad)
		}
	}
	return out
}
