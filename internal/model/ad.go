package model

import (
	"context"
	"time"
)

// Ad is a job advertisement as resolved from a search hit. Optional fields are
// nil when the source record carried no usable value.
type Ad struct {
	ID              string  `json:"id"`
	PublishDate     *string `json:"publish_date"`
	County          *string `json:"county"`
	OccupationGroup *string `json:"occupation_group"`
}

// RawAd is the persisted form of an Ad: its serialized payload plus the time it
// was fetched.
type RawAd struct {
	ID        string
	FetchedAt time.Time
	Payload   []byte
}

// NormalizedAd is an Ad reduced to the aggregation grain. Date is a calendar
// date in YYYY-MM-DD form, or nil when the publish date was missing or invalid.
type NormalizedAd struct {
	ID              string
	Date            *string
	County          *string
	OccupationGroup *string
}

// DailyAggregate counts ads per (date, county, occupation group).
// Nil key parts are valid, distinct group keys.
type DailyAggregate struct {
	Date            *string
	County          *string
	OccupationGroup *string
	AdCount         int
}

// AggregateKey identifies a DailyAggregate row.
type AggregateKey struct {
	Date            string
	County          string
	OccupationGroup string
	HasDate         bool
	HasCounty       bool
	HasOccupation   bool
}

// Key returns the grouping key of the row.
func (a DailyAggregate) Key() AggregateKey {
	return KeyOf(a.Date, a.County, a.OccupationGroup)
}

// KeyOf builds an AggregateKey, keeping nil distinct from the empty string.
func KeyOf(date, county, occupation *string) AggregateKey {
	var k AggregateKey
	if date != nil {
		k.Date, k.HasDate = *date, true
	}
	if county != nil {
		k.County, k.HasCounty = *county, true
	}
	if occupation != nil {
		k.OccupationGroup, k.HasOccupation = *occupation, true
	}
	return k
}

// Page is one page request against the search source.
type Page struct {
	Offset int
	Limit  int
}

// PageFetcher retrieves a single page of ads from a search source.
type PageFetcher interface {
	FetchPage(ctx context.Context, page Page) ([]Ad, error)
}

// AdFilter decides whether an ad is kept.
type AdFilter interface {
	Match(ad Ad) bool
}

// AdStore persists raw ads and daily aggregates.
type AdStore interface {
	EnsureSchema(ctx context.Context) error
	WriteRaw(ctx context.Context, ads []Ad) error
	WriteAggregate(ctx context.Context, rows []DailyAggregate) error
	Aggregates(ctx context.Context) ([]DailyAggregate, error)
}

// Str returns a pointer to s. Handy for building optional fields.
func Str(s string) *string { return &s }

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
