package entrance

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("entrance.repository",
	fx.Provide(repository.Provide),
)
