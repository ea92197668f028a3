package buildingdata

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/repository"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/service"
	"go.uber.org/fx"
)

var Module = fx.Module("buildingdata.service",
	fx.Provide(repository.ProvideMetadata),
	fx.Provide(repository.ProvideMapping),
	fx.Provide(repository.ProvideImportRun),
	fx.Provide(service.NewMappingService),
	fx.Provide(service.NewQueryService),
	fx.Provide(service.NewStatsService),
)

// ImportModule adds the registry import. It needs a registry reader in the graph.
var ImportModule = fx.Module("buildingdata.import",
	fx.Provide(service.NewImporter),
	fx.Provide(service.NewImportJob),
)
