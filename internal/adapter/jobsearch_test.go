package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobstats/internal/model"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *JobSearchAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewJobSearchAdapter(srv.URL+"/search", "jobstats-test/1.0", srv.Client())
}

func TestFetchPage_Success(t *testing.T) {
	payload := `{
		"total": {"value": 2},
		"hits": [
			{
				"id": "29531145",
				"publication_date": "2025-09-01T10:00:00",
				"published": "2025-08-30T08:00:00",
				"workplace_address": {"municipality": "Solna", "region": "Stockholms län"},
				"occupation": {"label": "Systemutvecklare", "field_label": "Data/IT"}
			},
			{
				"id": 777,
				"published": "2025-09-02T09:00:00+02:00",
				"workplace_address": {"county_name": "Skåne län"},
				"occupation": {"occupation_group": "Vård och omsorg"}
			}
		]
	}`

	var gotQuery map[string]string
	var gotUA, gotAccept string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":      r.URL.Query().Get("q"),
			"limit":  r.URL.Query().Get("limit"),
			"offset": r.URL.Query().Get("offset"),
		}
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	})

	ads, err := a.FetchPage(context.Background(), model.Page{Offset: 200, Limit: 100})
	require.NoError(t, err)
	require.Len(t, ads, 2)

	assert.Equal(t, map[string]string{"q": "*", "limit": "100", "offset": "200"}, gotQuery)
	assert.Equal(t, "jobstats-test/1.0", gotUA)
	assert.Equal(t, "application/json", gotAccept)

	first := ads[0]
	assert.Equal(t, "29531145", first.ID)
	assert.Equal(t, "2025-09-01T10:00:00", model.Deref(first.PublishDate))
	assert.Equal(t, "Stockholms län", model.Deref(first.County), "region outranks municipality")
	assert.Equal(t, "Systemutvecklare", model.Deref(first.OccupationGroup))

	second := ads[1]
	assert.Equal(t, "777", second.ID, "numeric ids render as strings")
	assert.Equal(t, "2025-09-02T09:00:00+02:00", model.Deref(second.PublishDate))
	assert.Equal(t, "Skåne län", model.Deref(second.County))
	assert.Equal(t, "Vård och omsorg", model.Deref(second.OccupationGroup))
}

func TestFetchPage_MissingFieldsStayNil(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": [{"workplace_address": null, "occupation": {"label": null}}]}`))
	})

	ads, err := a.FetchPage(context.Background(), model.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "", ads[0].ID)
	assert.Nil(t, ads[0].PublishDate)
	assert.Nil(t, ads[0].County)
	assert.Nil(t, ads[0].OccupationGroup)
}

func TestFetchPage_EmptyBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ads, err := a.FetchPage(context.Background(), model.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestFetchPage_MalformedJSON(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	})

	_, err := a.FetchPage(context.Background(), model.Page{Limit: 10})
	require.Error(t, err)
}

func TestFetchPage_HTTPError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := a.FetchPage(context.Background(), model.Page{Offset: 300, Limit: 10})
	require.Error(t, err)
	assert.Equal(t, "search page at offset 300: HTTP 503 Service Unavailable", err.Error())

	var httpErr *model.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
	assert.Equal(t, 300, httpErr.Offset)
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "empty", input: "", want: 0},
		{name: "seconds", input: "120", want: 120 * time.Second},
		{name: "negative", input: "-5", want: 0},
		{name: "garbage", input: "soon", want: 0},
		{name: "date in the past", input: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseRetryAfter(tc.input))
		})
	}
}
