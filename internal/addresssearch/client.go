// Package addresssearch talks to the external address search service.
package addresssearch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	obstracing "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/tracing"
	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	retryCount     = 2
)

var Module = fx.Module("addresssearch",
	fx.Provide(New),
)

type postalAddress struct {
	StreetAddress   string `json:"streetAddress"`
	PostalCode      string `json:"postalCode"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
}

type geo struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type place struct {
	Identifier         string        `json:"identifier"`
	PostalAddress      postalAddress `json:"postalAddress"`
	Geo                *geo          `json:"geo"`
	AdditionalProperty struct {
		BuildingID string `json:"buildingId"`
	} `json:"additionalProperty"`
}

type scoredPlace struct {
	Score float64 `json:"score"`
	Place place   `json:"place"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client resolves free-text queries to ranked places.
type Client struct {
	http     *resty.Client
	endpoint string
	log      *zap.Logger
}

// New returns a searcher that always fails with ErrSearchUnavailable when no URL is configured.
func New(cfg config.Config, log *zap.Logger) domain.PlaceSearcher {
	log = log.Named("addresssearch")
	endpoint := strings.TrimSpace(cfg.AddressSearch.URL)
	if endpoint == "" {
		log.Info("address search disabled, ADDRESS_SEARCH_URL is empty")
		return Unavailable{}
	}

	timeout := time.Duration(cfg.AddressSearch.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClient(endpoint, timeout, log)
}

func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	httpClient := obstracing.WrapHTTPClient(&http.Client{})
	client := resty.NewWithClient(httpClient).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")

	return &Client{http: client, endpoint: endpoint, log: log}
}

func (c *Client) SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	var hits []scoredPlace
	var failure errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&hits).
		SetError(&failure).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("address search: %w", err)
	}
	if resp.IsError() {
		c.log.Warn("address search rejected query",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", failure.Error),
		)
		return nil, fmt.Errorf("address search: unexpected status %d", resp.StatusCode())
	}

	places := make([]domain.Place, 0, len(hits))
	for _, hit := range hits {
		p := domain.Place{
			ID:            hit.Place.Identifier,
			StreetAddress: hit.Place.PostalAddress.StreetAddress,
			PostalCode:    hit.Place.PostalAddress.PostalCode,
			Locality:      hit.Place.PostalAddress.AddressLocality,
			Region:        hit.Place.PostalAddress.AddressRegion,
			BuildingID:    strings.TrimSpace(hit.Place.AdditionalProperty.BuildingID),
			Score:         hit.Score,
		}
		if hit.Place.Geo != nil {
			p.Latitude = hit.Place.Geo.Latitude
			p.Longitude = hit.Place.Geo.Longitude
		}
		places = append(places, p)
	}
	return places, nil
}

// Unavailable is the searcher used when no search service is configured.
type Unavailable struct{}

func (Unavailable) SearchPlaces(context.Context, string, int) ([]domain.Place, error) {
	return nil, domain.ErrSearchUnavailable
}
