package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statsTimeLayout   = "2006-01-02 15:04:05"
	statsStatusActive = "Building metadata system active"
)

var (
	statsCoverage = map[string]string{
		"switzerland":     "Complete GWR federal registry",
		"liechtenstein":   "Complete building registry",
		"updateFrequency": "Weekly (Mondays)",
	}
	statsCapabilities = map[string]string{
		"egidLookup":    "Available via /buildings/egid/{egid}",
		"egridLookup":   "Available via /buildings/egrid/{egrid}",
		"addressSearch": "Available via /buildings/address",
		"addressLookup": "Available via /addresses/{id}/building",
		"listing":       "Available via /buildings",
		"export":        "Available via /buildings/export.xlsx",
	}
	statsMetadataFields = map[string]string{
		"construction":  "Year, month, period, category, class, status",
		"physical":      "Area, volume, floors, apartments, civil defense shelters",
		"energySystems": "Up to 2 heating + 2 hot water systems per building",
		"location":      "LV95 coordinates, canton, municipality details",
		"property":      "EGRID, land registry, plot information",
	}
)

type StatsParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Metadata domain.MetadataRepository
	Mappings domain.MappingRepository
	Runs     domain.ImportRunRepository
}

type StatsService struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	metadata domain.MetadataRepository
	mappings domain.MappingRepository
	runs     domain.ImportRunRepository
}

func NewStatsService(p StatsParams) domain.StatsService {
	return &StatsService{
		db:       p.DB,
		log:      p.Log.Named("buildingdata.stats"),
		clock:    p.Clock,
		metadata: p.Metadata,
		mappings: p.Mappings,
		runs:     p.Runs,
	}
}

// Compute counts buildings and mappings. A store without the tables yields ErrNotInitialized.
func (s *StatsService) Compute(ctx context.Context) (domain.Stats, error) {
	buildings, err := s.metadata.CountTotal(ctx, s.db)
	if err != nil {
		return domain.Stats{}, s.classify(err)
	}
	mappings, err := s.mappings.CountTotal(ctx, s.db)
	if err != nil {
		return domain.Stats{}, s.classify(err)
	}

	stats := domain.Stats{
		TotalBuildings: buildings,
		TotalMappings:  mappings,
	}
	if buildings > 0 {
		ratio := float64(mappings) / float64(buildings)
		stats.Ratio = round(ratio, 2)
		stats.AverageEntrancesPerBuilding = round(ratio, 1)
	}
	return stats, nil
}

func (s *StatsService) Report(ctx context.Context) (*domain.StatsView, error) {
	stats, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}

	lastUpdated := s.clock.Now()
	run, err := s.runs.FindLatestSucceeded(ctx, s.db)
	if err != nil {
		// import_runs is optional for reporting
		s.log.Warn("failed to load latest import run", zap.Error(err))
		run = nil
	}
	var lastImport *domain.ImportRunSummary
	if run != nil {
		lastImport = summarizeRun(*run)
		if run.FinishedAt != nil {
			lastUpdated = *run.FinishedAt
		}
	}

	return &domain.StatsView{
		TotalBuildings:       stats.TotalBuildings,
		TotalAddressMappings: stats.TotalMappings,
		Status:               statsStatusActive,
		LastUpdated:          lastUpdated.UTC().Format(statsTimeLayout),
		LastImport:           lastImport,
		DataQuality: domain.DataQuality{
			WithMetadata:                stats.TotalBuildings,
			AddressMappingRatio:         stats.Ratio,
			AverageEntrancesPerBuilding: stats.AverageEntrancesPerBuilding,
		},
		Coverage:       statsCoverage,
		Capabilities:   statsCapabilities,
		MetadataFields: statsMetadataFields,
	}, nil
}

func (s *StatsService) classify(err error) error {
	if db.IsUndefinedTableErr(err) {
		return domain.ErrNotInitialized
	}
	return fmt.Errorf("count building data: %w", err)
}

func summarizeRun(run domain.ImportRun) *domain.ImportRunSummary {
	summary := &domain.ImportRunSummary{
		ID:            run.ID.String(),
		Status:        run.Status,
		MetadataCount: run.MetadataCount,
		MappingCount:  run.MappingCount,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.UTC().Format(time.RFC3339)
		summary.FinishedAt = &finished
	}
	return summary
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
