package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/sem"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Connect(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func registriesWithTable(name string, createVersion int) *sem.Registries {
	reg := sem.NewRegistries()
	reg.Tables.Insert(name, &sem.TableDef{
		Name:    name,
		Columns: []sem.ColumnDef{{Name: "id", Type: ast.TypeInt64, NotNull: true, PK: true}},
		Versioning: sem.SchemaVersioning{
			CreateVersion: createVersion,
			CreateSet:     true,
		},
	})
	return reg
}

func TestConnectCreatesSchemaTables(t *testing.T) {
	s := testStore(t)
	require.True(t, s.db.Migrator().HasTable(&SchemaRecord{}))
	require.True(t, s.db.Migrator().HasTable(&MigrationRecord{}))
}

func TestSaveAndLoadSchemaRoundTrips(t *testing.T) {
	s := testStore(t)
	reg := registriesWithTable("widgets", 3)

	require.NoError(t, s.SaveSchema(reg))

	loaded, err := s.LoadSchema()
	require.NoError(t, err)
	v, ok := loaded["widgets"]
	require.True(t, ok)
	require.Equal(t, 3, v.CreateVersion)
	require.True(t, v.CreateSet)
}

func TestSaveSchemaUpsertsRatherThanDuplicating(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveSchema(registriesWithTable("widgets", 1)))
	require.NoError(t, s.SaveSchema(registriesWithTable("widgets", 2)))

	loaded, err := s.LoadSchema()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, 2, loaded["widgets"].CreateVersion)
}

func TestValidateAgainstPreviousCatchesVersionRegression(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveSchema(registriesWithTable("widgets", 5)))

	regressed := registriesWithTable("widgets", 2)
	errs, err := s.ValidateAgainstPrevious(regressed)
	require.NoError(t, err)
	require.NotEmpty(t, errs)
}

func TestValidateAgainstPreviousOKWhenUnchanged(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveSchema(registriesWithTable("widgets", 5)))

	same := registriesWithTable("widgets", 5)
	errs, err := s.ValidateAgainstPrevious(same)
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestSaveAndLoadAdHocMigrations(t *testing.T) {
	s := testStore(t)
	reg := sem.NewRegistries()
	reg.AdHocMigrations.Insert("v2_backfill", sem.AdHocMigration{Version: 2, ProcName: "backfill_v2"})
	reg.AdHocMigrations.Insert("v1_seed", sem.AdHocMigration{Version: 1, ProcName: "seed_v1"})

	require.NoError(t, s.SaveSchema(reg))

	migrations, err := s.LoadAdHocMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, 1, migrations[0].Version)
	require.Equal(t, "seed_v1", migrations[0].ProcName)
	require.Equal(t, 2, migrations[1].Version)
}
