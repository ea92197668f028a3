package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.Len(t, ups, 4)
	assert.Equal(t, ups, downs)
}

func TestEmbeddedSourceReadsFirstVersion(t *testing.T) {
	source, err := newSource()
	require.NoError(t, err)

	version, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestRunAutoMigratesNonPostgres(t *testing.T) {
	conn := dbtest.Open(t)

	require.NoError(t, Run(conn))
	require.NoError(t, Run(conn), "second run is a no-op")

	for _, table := range []string{"building_entrance", "building_metadata", "building_address_mapping", "import_runs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("building_address_mapping", "uniq_building_entrance"))
}

func TestRunRequiresConnection(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, RunMigrations(nil))
}
