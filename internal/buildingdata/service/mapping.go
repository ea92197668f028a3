package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mainEntranceCode is the entrance sequence number of a building's main entrance.
const mainEntranceCode = "0"

type MappingParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Entrances entrancedomain.Repository
	Metadata  domain.MetadataRepository
	Mappings  domain.MappingRepository
	Cache     domain.ViewCache `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type MappingService struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	entrances entrancedomain.Repository
	metadata  domain.MetadataRepository
	mappings  domain.MappingRepository
	cache     domain.ViewCache
	metrics   *metrics.Metrics
}

func NewMappingService(p MappingParams) domain.MappingService {
	cache := p.Cache
	if cache == nil {
		cache = domain.NoopViewCache{}
	}
	return &MappingService{
		db:        p.DB,
		log:       p.Log.Named("buildingdata.mapping"),
		clock:     p.Clock,
		entrances: p.Entrances,
		metadata:  p.Metadata,
		mappings:  p.Mappings,
		cache:     cache,
		metrics:   p.Metrics,
	}
}

// BuildMappings links every entrance of an imported building that is not linked yet.
// Existing mappings keep their primary flag. It returns the number of new mappings.
func (s *MappingService) BuildMappings(ctx context.Context, batchSize int) (int64, error) {
	if batchSize < 1 {
		return 0, domain.ErrInvalidBatchSize
	}

	total, err := s.entrances.CountAll(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("count entrances: %w", err)
	}
	s.log.Info("building address mappings", zap.Int64("total", total), zap.Int("batch_size", batchSize))

	var created, skipped int64
	for offset := 0; int64(offset) < total; offset += batchSize {
		batch, err := s.entrances.FindBatch(ctx, s.db, batchSize, offset)
		if err != nil {
			return created, fmt.Errorf("read entrance batch at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}

		pending, missing, err := s.pendingMappings(ctx, batch)
		if err != nil {
			return created, err
		}
		skipped += missing

		var written int64
		if len(pending) > 0 {
			err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				n, err := s.mappings.CreateBatch(ctx, tx, pending)
				written = n
				return err
			})
			if err != nil {
				return created, fmt.Errorf("write mapping batch at offset %d: %w", offset, err)
			}
		}

		created += written
		s.metrics.RecordMappingsCreated(ctx, int(written))
		s.log.Info("entrance batch mapped",
			zap.Int("offset", offset),
			zap.Int64("total", total),
			zap.Int64("created", created),
			zap.Int64("skipped", skipped),
		)
	}

	return created, nil
}

// pendingMappings returns the mappings to create for batch and the number of entrances
// skipped because their building has no metadata.
func (s *MappingService) pendingMappings(ctx context.Context, batch []entrancedomain.Entrance) ([]domain.AddressMapping, int64, error) {
	egids := make([]string, 0, len(batch))
	entranceIDs := make([]string, 0, len(batch))
	for _, e := range batch {
		if egid := strings.TrimSpace(e.BuildingID); egid != "" {
			egids = append(egids, egid)
		}
		entranceIDs = append(entranceIDs, e.ID)
	}

	known, err := s.metadata.ExistingEGIDs(ctx, s.db, egids)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve building metadata: %w", err)
	}
	existing, err := s.mappings.ExistingKeys(ctx, s.db, entranceIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve existing mappings: %w", err)
	}

	now := s.clock.Now()
	var skipped int64
	pending := make([]domain.AddressMapping, 0, len(batch))
	for _, e := range batch {
		egid := strings.TrimSpace(e.BuildingID)
		if egid == "" {
			skipped++
			continue
		}
		if _, ok := known[egid]; !ok {
			skipped++
			continue
		}
		key := domain.MappingKey{EGID: egid, BuildingEntranceID: e.ID}
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}

		pending = append(pending, domain.AddressMapping{
			ID:                 uuid.NewString(),
			EGID:               egid,
			BuildingEntranceID: e.ID,
			EntranceID:         e.EntranceID,
			IsPrimaryEntrance:  e.EntranceID == mainEntranceCode,
			CreatedAt:          now,
		})
	}
	return pending, skipped, nil
}

// CreateMapping links one entrance explicitly. An existing pair is returned unchanged.
func (s *MappingService) CreateMapping(ctx context.Context, req domain.CreateMappingRequest) (*domain.AddressMapping, error) {
	egid, err := normalizeEGID(req.EGID)
	if err != nil {
		return nil, err
	}
	entranceRef, err := normalizeUUID(req.BuildingEntranceID, domain.ErrInvalidEntranceID)
	if err != nil {
		return nil, err
	}

	building, err := s.metadata.FindByEGID(ctx, s.db, egid)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, domain.ErrBuildingNotFound
	}
	entrance, err := s.entrances.FindByID(ctx, s.db, entranceRef)
	if err != nil {
		return nil, err
	}
	if entrance == nil {
		return nil, domain.ErrAddressNotFound
	}

	existing, err := s.findMapping(ctx, egid, entranceRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	entranceSeq := strings.TrimSpace(req.EntranceID)
	if entranceSeq == "" {
		entranceSeq = entrance.EntranceID
	}
	mapping := domain.AddressMapping{
		ID:                 uuid.NewString(),
		EGID:               egid,
		BuildingEntranceID: entranceRef,
		EntranceID:         entranceSeq,
		CreatedAt:          s.clock.Now(),
	}
	// A primary request takes the flag from the current primary in the same transaction.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.mappings.Create(ctx, tx, &mapping); err != nil {
			return err
		}
		if !req.IsPrimary {
			return nil
		}
		return s.mappings.SetPrimaryEntrance(ctx, tx, egid, entranceRef)
	})
	if err != nil {
		return nil, err
	}
	mapping.IsPrimaryEntrance = req.IsPrimary

	s.invalidateBuilding(ctx, egid)
	return &mapping, nil
}

func (s *MappingService) findMapping(ctx context.Context, egid, entranceRef string) (*domain.AddressMapping, error) {
	exists, err := s.mappings.Exists(ctx, s.db, egid, entranceRef)
	if err != nil || !exists {
		return nil, err
	}
	items, err := s.mappings.FindByEGID(ctx, s.db, egid)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].BuildingEntranceID == entranceRef {
			return &items[i], nil
		}
	}
	return nil, nil
}

// SetPrimaryEntrance moves the primary flag of egid to the given entrance.
func (s *MappingService) SetPrimaryEntrance(ctx context.Context, egid, buildingEntranceID string) error {
	egid, err := normalizeEGID(egid)
	if err != nil {
		return err
	}
	entranceRef, err := normalizeUUID(buildingEntranceID, domain.ErrInvalidEntranceID)
	if err != nil {
		return err
	}

	building, err := s.metadata.FindByEGID(ctx, s.db, egid)
	if err != nil {
		return err
	}
	if building == nil {
		return domain.ErrBuildingNotFound
	}

	if err := s.mappings.SetPrimaryEntrance(ctx, s.db, egid, entranceRef); err != nil {
		return err
	}

	s.invalidateBuilding(ctx, egid)

	s.log.Info("primary entrance reassigned", zap.String("egid", egid), zap.String("entrance", entranceRef))
	return nil
}

// FindPrimaryEntrance returns the entrance flagged primary for egid, or nil when none is.
func (s *MappingService) FindPrimaryEntrance(ctx context.Context, egid string) (*entrancedomain.Entrance, error) {
	egid, err := normalizeEGID(egid)
	if err != nil {
		return nil, err
	}
	mapping, err := s.mappings.FindPrimary(ctx, s.db, egid)
	if err != nil || mapping == nil {
		return nil, err
	}
	return s.entrances.FindByID(ctx, s.db, mapping.BuildingEntranceID)
}

// invalidateBuilding drops the building view of egid and both address views of
// every entrance mapped to it, since each lists its sibling entrances.
func (s *MappingService) invalidateBuilding(ctx context.Context, egid string) {
	s.cache.Invalidate(ctx, domain.CacheKindBuilding, egid)

	items, err := s.mappings.FindByEGID(ctx, s.db, egid)
	if err != nil {
		s.log.Warn("failed to resolve mappings for cache invalidation", zap.String("egid", egid), zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}
	keys := make([]string, 0, len(items)*2)
	for _, item := range items {
		keys = append(keys, addressCacheID(item.BuildingEntranceID, false), addressCacheID(item.BuildingEntranceID, true))
	}
	s.cache.Invalidate(ctx, domain.CacheKindAddress, keys...)
}
