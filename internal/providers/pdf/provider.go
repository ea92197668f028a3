package pdf

import (
	"context"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Provider renders printable documents for composed building views.
type Provider interface {
	Factsheet(ctx context.Context, view *domain.BuildingView) ([]byte, error)
}

func New() Provider {
	return &PDFProvider{}
}
