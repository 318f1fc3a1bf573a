package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/amishk599/jobstats/internal/model"
)

// DefaultJobSearchURL is the public JobTech search endpoint.
const DefaultJobSearchURL = "https://jobsearch.api.jobtechdev.se/search"

// wildcardQuery matches every ad. The endpoint rejects an empty q with 400.
const wildcardQuery = "*"

// searchHit is one entry of the "hits" array. Every field is optional; the
// source is loosely structured and different ads populate different names.
type searchHit struct {
	ID               json.RawMessage   `json:"id"`
	PublicationDate  *string           `json:"publication_date"`
	Published        *string           `json:"published"`
	WorkplaceAddress *workplaceAddress `json:"workplace_address"`
	Occupation       *occupation       `json:"occupation"`
}

type workplaceAddress struct {
	County       *string `json:"county"`
	Region       *string `json:"region"`
	Municipality *string `json:"municipality"`
	CountyName   *string `json:"county_name"`
}

type occupation struct {
	Label           *string `json:"label"`
	FieldLabel      *string `json:"field_label"`
	OccupationGroup *string `json:"occupation_group"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type fieldAccessor func(h searchHit) *string

// Preference order for each resolved field; the first non-nil value wins.
var (
	publishDateFields = []fieldAccessor{
		func(h searchHit) *string { return h.PublicationDate },
		func(h searchHit) *string { return h.Published },
	}

	countyFields = []fieldAccessor{
		func(h searchHit) *string { return addr(h).County },
		func(h searchHit) *string { return addr(h).Region },
		func(h searchHit) *string { return addr(h).Municipality },
		func(h searchHit) *string { return addr(h).CountyName },
	}

	occupationFields = []fieldAccessor{
		func(h searchHit) *string { return occ(h).Label },
		func(h searchHit) *string { return occ(h).FieldLabel },
		func(h searchHit) *string { return occ(h).OccupationGroup },
	}
)

func addr(h searchHit) workplaceAddress {
	if h.WorkplaceAddress == nil {
		return workplaceAddress{}
	}
	return *h.WorkplaceAddress
}

func occ(h searchHit) occupation {
	if h.Occupation == nil {
		return occupation{}
	}
	return *h.Occupation
}

func firstPresent(h searchHit, accessors []fieldAccessor) *string {
	for _, get := range accessors {
		if v := get(h); v != nil {
			return v
		}
	}
	return nil
}

// hitID renders the id as a string whether the source sent it as a JSON
// string or a number. A missing or null id yields "".
func hitID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return strings.Trim(string(trimmed), `"`)
}

func (h searchHit) toAd() model.Ad {
	return model.Ad{
		ID:              hitID(h.ID),
		PublishDate:     firstPresent(h, publishDateFields),
		County:          firstPresent(h, countyFields),
		OccupationGroup: firstPresent(h, occupationFields),
	}
}

// JobSearchAdapter fetches pages of ads from the JobTech search API.
type JobSearchAdapter struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewJobSearchAdapter creates an adapter for the search endpoint at baseURL.
func NewJobSearchAdapter(baseURL, userAgent string, client *http.Client) *JobSearchAdapter {
	if baseURL == "" {
		baseURL = DefaultJobSearchURL
	}
	return &JobSearchAdapter{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    client,
	}
}

// FetchPage requests one page of hits and resolves each into an Ad.
func (a *JobSearchAdapter) FetchPage(ctx context.Context, page model.Page) ([]model.Ad, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "jobsearch: parse base url %q", a.baseURL)
	}
	q := u.Query()
	q.Set("q", wildcardQuery)
	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(page.Offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "jobsearch fetch at offset %d", page.Offset)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "jobsearch fetch at offset %d", page.Offset)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Offset:     page.Offset,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "jobsearch read body at offset %d", page.Offset)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, errors.Wrapf(err, "jobsearch decode at offset %d", page.Offset)
	}

	ads := make([]model.Ad, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		ads = append(ads, h.toAd())
	}
	return ads, nil
}
