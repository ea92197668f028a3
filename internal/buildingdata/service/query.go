package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/compose"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lookupEGID    = "egid"
	lookupEGRID   = "egrid"
	lookupAddress = "address"
	lookupSearch  = "search"

	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

type QueryParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Metadata  domain.MetadataRepository
	Mappings  domain.MappingRepository
	Entrances entrancedomain.Repository
	Places    domain.PlaceSearcher `optional:"true"`
	Cache     domain.ViewCache     `optional:"true"`
	Tuning    *config.TuningHolder `optional:"true"`
	Metrics   *metrics.Metrics     `optional:"true"`
}

type QueryService struct {
	db        *gorm.DB
	log       *zap.Logger
	metadata  domain.MetadataRepository
	mappings  domain.MappingRepository
	entrances entrancedomain.Repository
	places    domain.PlaceSearcher
	cache     domain.ViewCache
	tuning    *config.TuningHolder
	metrics   *metrics.Metrics
}

func NewQueryService(p QueryParams) domain.QueryService {
	cache := p.Cache
	if cache == nil {
		cache = domain.NoopViewCache{}
	}
	return &QueryService{
		db:        p.DB,
		log:       p.Log.Named("buildingdata.query"),
		metadata:  p.Metadata,
		mappings:  p.Mappings,
		entrances: p.Entrances,
		places:    p.Places,
		cache:     cache,
		tuning:    p.Tuning,
		metrics:   p.Metrics,
	}
}

func (s *QueryService) GetByEGID(ctx context.Context, egid string) (*domain.BuildingView, error) {
	egid, err := normalizeEGID(egid)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupEGID, outcomeInvalid)
		return nil, err
	}

	var cached domain.BuildingView
	if s.cached(ctx, domain.CacheKindBuilding, egid, &cached) {
		s.metrics.RecordLookup(ctx, lookupEGID, outcomeFound)
		return &cached, nil
	}

	m, err := s.metadata.FindByEGID(ctx, s.db, egid)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupEGID, outcomeError)
		return nil, storeErr(err)
	}
	if m == nil {
		s.metrics.RecordLookup(ctx, lookupEGID, outcomeNotFound)
		return nil, domain.ErrBuildingNotFound
	}

	links, err := s.links(ctx, egid)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupEGID, outcomeError)
		return nil, storeErr(err)
	}

	view := compose.Building(*m, links)
	s.cache.Set(ctx, domain.CacheKindBuilding, egid, view)
	s.metrics.RecordLookup(ctx, lookupEGID, outcomeFound)
	return &view, nil
}

// GetByEGRID resolves the EGID of the property and then follows the EGID path.
func (s *QueryService) GetByEGRID(ctx context.Context, egrid string) (*domain.BuildingView, error) {
	egrid, err := normalizeEGRID(egrid)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupEGRID, outcomeInvalid)
		return nil, err
	}

	m, err := s.metadata.FindByEGRID(ctx, s.db, egrid)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupEGRID, outcomeError)
		return nil, storeErr(err)
	}
	if m == nil {
		s.metrics.RecordLookup(ctx, lookupEGRID, outcomeNotFound)
		return nil, domain.ErrBuildingNotFound
	}

	s.metrics.RecordLookup(ctx, lookupEGRID, outcomeFound)
	return s.GetByEGID(ctx, m.EGID)
}

// GetAddress composes the view of one entrance. An entrance without a mapped building
// yields a view carrying a note instead of an error.
func (s *QueryService) GetAddress(ctx context.Context, req domain.AddressRequest) (*domain.AddressView, error) {
	id, err := normalizeUUID(req.ID, domain.ErrInvalidAddressID)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupAddress, outcomeInvalid)
		return nil, err
	}

	cacheID := addressCacheID(id, req.IncludeAllEntrances)
	var cached domain.AddressView
	if s.cached(ctx, domain.CacheKindAddress, cacheID, &cached) {
		s.metrics.RecordLookup(ctx, lookupAddress, outcomeFound)
		return &cached, nil
	}

	view, err := s.composeAddress(ctx, id, req.IncludeAllEntrances)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			s.metrics.RecordLookup(ctx, lookupAddress, outcomeNotFound)
		} else {
			s.metrics.RecordLookup(ctx, lookupAddress, outcomeError)
		}
		return nil, storeErr(err)
	}

	s.cache.Set(ctx, domain.CacheKindAddress, cacheID, view)
	s.metrics.RecordLookup(ctx, lookupAddress, outcomeFound)
	return view, nil
}

func (s *QueryService) composeAddress(ctx context.Context, id string, includeAll bool) (*domain.AddressView, error) {
	entrance, err := s.entrances.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entrance == nil {
		return nil, domain.ErrAddressNotFound
	}

	mapping, err := s.mappings.FindByEntrance(ctx, s.db, entrance.ID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		view := compose.Address(*entrance, nil, nil, includeAll)
		return &view, nil
	}

	m, err := s.metadata.FindByEGID(ctx, s.db, mapping.EGID)
	if err != nil {
		return nil, err
	}

	var links []compose.Link
	if m != nil && includeAll {
		links, err = s.links(ctx, m.EGID)
		if err != nil {
			return nil, err
		}
	}

	view := compose.Address(*entrance, m, links, includeAll)
	return &view, nil
}

// Search resolves the query through the place searcher and returns one summary per building,
// in ranking order.
func (s *QueryService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	limit := req.Limit
	if limit == 0 {
		limit = s.defaultSearchLimit()
	}
	if limit < 1 || limit > domain.MaxSearchLimit {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeInvalid)
		return nil, domain.ErrInvalidLimit
	}
	query := searchQuery(req)
	if query == "" {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeInvalid)
		return nil, domain.ErrEmptySearchCriteria
	}
	if s.places == nil {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeError)
		return nil, domain.ErrSearchUnavailable
	}

	cacheID := searchCacheID(query, limit)
	var cached domain.SearchResult
	if s.cached(ctx, domain.CacheKindSearch, cacheID, &cached) {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeFound)
		return &cached, nil
	}

	places, err := s.places.SearchPlaces(ctx, query, limit)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeError)
		return nil, err
	}

	type candidate struct {
		egid  string
		place domain.Place
	}
	seen := make(map[string]struct{}, len(places))
	candidates := make([]candidate, 0, len(places))
	egids := make([]string, 0, len(places))
	for _, place := range places {
		egid := strings.TrimSpace(place.BuildingID)
		if egid == "" {
			continue
		}
		if _, ok := seen[egid]; ok {
			continue
		}
		seen[egid] = struct{}{}
		candidates = append(candidates, candidate{egid: egid, place: place})
		egids = append(egids, egid)
	}

	rows, err := s.metadata.FindByEGIDs(ctx, s.db, egids)
	if err != nil {
		s.metrics.RecordLookup(ctx, lookupSearch, outcomeError)
		return nil, storeErr(err)
	}
	byEGID := make(map[string]domain.BuildingMetadata, len(rows))
	for _, row := range rows {
		byEGID[row.EGID] = row
	}

	buildings := make([]domain.BuildingSummary, 0, len(candidates))
	for _, c := range candidates {
		m, ok := byEGID[c.egid]
		if !ok {
			continue
		}
		place := c.place
		buildings = append(buildings, compose.Summary(m, &place))
	}

	result := domain.SearchResult{
		Query:     query,
		Count:     len(buildings),
		Buildings: buildings,
	}
	s.cache.Set(ctx, domain.CacheKindSearch, cacheID, result)

	outcome := outcomeFound
	if len(buildings) == 0 {
		outcome = outcomeNotFound
	}
	s.metrics.RecordLookup(ctx, lookupSearch, outcome)
	return &result, nil
}

func (s *QueryService) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter, err := normalizeFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return nil, err
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Normalize()

	rows, err := s.metadata.List(ctx, s.db, filter, page, cursor)
	if err != nil {
		return nil, storeErr(err)
	}
	rows, info := pagination.BuildCursorPageInfo(rows, page.PageSize, func(m domain.BuildingMetadata) string {
		return m.EGID
	})

	return &domain.ListResponse{
		PageInfo:  info,
		Buildings: summaries(rows),
	}, nil
}

// Export returns the summaries matching filter, capped at MaxExportRows.
func (s *QueryService) Export(ctx context.Context, filter domain.ListFilter) ([]domain.BuildingSummary, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.metadata.FindLimited(ctx, s.db, filter, domain.MaxExportRows)
	if err != nil {
		return nil, storeErr(err)
	}
	return summaries(rows), nil
}

// links resolves the entrances of every mapping of egid, keeping the mapping order.
func (s *QueryService) links(ctx context.Context, egid string) ([]compose.Link, error) {
	mappings, err := s.mappings.FindByEGID(ctx, s.db, egid)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		ids = append(ids, mapping.BuildingEntranceID)
	}
	entrances, err := s.entrances.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entrancedomain.Entrance, len(entrances))
	for i := range entrances {
		byID[entrances[i].ID] = &entrances[i]
	}

	links := make([]compose.Link, 0, len(mappings))
	for _, mapping := range mappings {
		links = append(links, compose.Link{
			Mapping:  mapping,
			Entrance: byID[mapping.BuildingEntranceID],
		})
	}
	return links, nil
}

func (s *QueryService) cached(ctx context.Context, kind, id string, dest any) bool {
	hit := s.cache.Get(ctx, kind, id, dest)
	s.metrics.RecordCacheLookup(ctx, kind, hit)
	return hit
}

func (s *QueryService) defaultSearchLimit() int {
	if s.tuning != nil {
		if limit := s.tuning.Get().Search.DefaultLimit; limit > 0 {
			return limit
		}
	}
	return domain.DefaultSearchLimit
}

// storeErr reports a store without the building tables as not initialized.
func storeErr(err error) error {
	if db.IsUndefinedTableErr(err) {
		return domain.ErrNotInitialized
	}
	return err
}

func summaries(rows []domain.BuildingMetadata) []domain.BuildingSummary {
	out := make([]domain.BuildingSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, compose.Summary(row, nil))
	}
	return out
}
