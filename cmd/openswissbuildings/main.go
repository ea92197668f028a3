package main

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/migration"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/server"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,

		// Building data, cache, search and HTTP
		server.Module,
	)
	app.Run()
}
