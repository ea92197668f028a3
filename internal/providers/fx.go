package providers

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers/pdf"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers/xlsx"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	xlsx.Module,
)
