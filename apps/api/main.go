package main

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/server"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"go.uber.org/fx"
)

// The schema is owned by the importer; the API only reads and updates rows.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		server.Module,
	)
	app.Run()
}
