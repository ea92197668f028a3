package addresssearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const searchResponse = `[
  {"score": 0.93, "place": {
    "identifier": "6f1c2a9e-5b1d-4a53-9c51-000000000001",
    "postalAddress": {"streetAddress": "Bahnhofstrasse 1", "postalCode": "8001", "addressLocality": "Zürich", "addressRegion": "ZH"},
    "geo": {"latitude": 47.3769, "longitude": 8.5417},
    "additionalProperty": {"buildingId": "150404"}
  }},
  {"score": 0.41, "place": {
    "identifier": "6f1c2a9e-5b1d-4a53-9c51-000000000009",
    "postalAddress": {"streetAddress": "Bahnhofplatz", "postalCode": "8001", "addressLocality": "Zürich", "addressRegion": "ZH"},
    "additionalProperty": {}
  }}
]`

func TestSearchPlacesDecodesRankedPlaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bahnhofstrasse 1", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	places, err := NewClient(server.URL, time.Second, zap.NewNop()).SearchPlaces(context.Background(), "Bahnhofstrasse 1", 5)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "150404", places[0].BuildingID)
	assert.Equal(t, "ZH", places[0].Region)
	require.NotNil(t, places[0].Latitude)
	assert.InDelta(t, 47.3769, *places[0].Latitude, 1e-9)
	assert.Empty(t, places[1].BuildingID)
	assert.Nil(t, places[1].Latitude)
}

func TestSearchPlacesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	places, err := NewClient(server.URL, time.Second, zap.NewNop()).SearchPlaces(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchPlacesSurfacesClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"query too short"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, zap.NewNop()).SearchPlaces(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "unexpected status 400")
}

func TestNewWithoutURLIsUnavailable(t *testing.T) {
	searcher := New(config.Config{}, zap.NewNop())
	_, err := searcher.SearchPlaces(context.Background(), "x", 1)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}
