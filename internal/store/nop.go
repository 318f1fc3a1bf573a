package store

import (
	"context"

	"github.com/amishk599/jobstats/internal/model"
)

// NopStore is used in dry-run mode. Raw ads are discarded and the latest
// aggregate batch is only kept in memory so the run summary can still be shown.
type NopStore struct {
	last []model.DailyAggregate
}

var _ model.AdStore = (*NopStore)(nil)

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) EnsureSchema(context.Context) error { return nil }
func (s *NopStore) WriteRaw(context.Context, []model.Ad) error { return nil }
func (s *NopStore) Aggregates(context.Context) ([]model.DailyAggregate, error) {
	return append([]model.DailyAggregate(nil), s.last...), nil
}

func (s *NopStore) WriteAggregate(_ context.Context, rows []model.DailyAggregate) error {
	s.last = append([]model.DailyAggregate(nil), rows...)
	return nil
}
