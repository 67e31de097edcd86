package snapshot

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cqllang/cqlc/internal/sem"
)

// SaveSchema persists the current versioning of every table registered in
// reg (including ones marked Deleted; no column records are written) and
// every ad-hoc migration, upserting on (kind, object) so a later compile's
// save replaces rather than duplicates a table's prior snapshot row.
func (s *Store) SaveSchema(reg *sem.Registries) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range reg.Tables.Keys() {
			table, _ := reg.Tables.Lookup(name)
			record := SchemaRecord{
				Kind:          "table",
				Object:        table.Name,
				CreateVersion: table.Versioning.CreateVersion,
				CreateSet:     table.Versioning.CreateSet,
				DeleteVersion: table.Versioning.DeleteVersion,
				DeleteSet:     table.Versioning.DeleteSet,
				Migrator:      table.Versioning.Migrator,
				Recreate:      table.Versioning.Recreate,
				RecreateGroup: table.Versioning.RecreateGroup,
				TypeHash:      sem.TypeHash(table),
			}
			if err := upsertSchemaRecord(tx, &record); err != nil {
				return fmt.Errorf("snapshot: saving table %s: %w", table.Name, err)
			}
		}

		for _, name := range reg.AdHocMigrations.Keys() {
			m, _ := reg.AdHocMigrations.Lookup(name)
			record := MigrationRecord{Version: m.Version, ProcName: m.ProcName}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "version"}},
				DoUpdates: clause.AssignmentColumns([]string{"proc_name"}),
			}).Create(&record).Error
			if err != nil {
				return fmt.Errorf("snapshot: saving ad hoc migration v%d: %w", m.Version, err)
			}
		}
		return nil
	})
}

func upsertSchemaRecord(tx *gorm.DB, record *SchemaRecord) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "object"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"create_version", "create_set", "delete_version", "delete_set",
			"migrator", "recreate", "recreate_group", "type_hash", "updated_at",
		}),
	}).Create(record).Error
}

// LoadSchema returns the previously-saved versioning of every table,
// keyed by table name, in the shape sem.ValidatePreviousSchema expects.
func (s *Store) LoadSchema() (map[string]sem.SchemaVersioning, error) {
	var records []SchemaRecord
	if err := s.db.Where("kind = ?", "table").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("snapshot: loading schema: %w", err)
	}
	previous := make(map[string]sem.SchemaVersioning, len(records))
	for _, r := range records {
		previous[r.Object] = sem.SchemaVersioning{
			CreateVersion: r.CreateVersion,
			CreateSet:     r.CreateSet,
			DeleteVersion: r.DeleteVersion,
			DeleteSet:     r.DeleteSet,
			Migrator:      r.Migrator,
			Recreate:      r.Recreate,
			RecreateGroup: r.RecreateGroup,
		}
	}
	return previous, nil
}

// LoadAdHocMigrations returns every ad-hoc migration ever saved, in
// ascending version order (gorm's default Find order matches insertion,
// but an explicit Order keeps this deterministic regardless).
func (s *Store) LoadAdHocMigrations() ([]sem.AdHocMigration, error) {
	var records []MigrationRecord
	if err := s.db.Order("version asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("snapshot: loading ad hoc migrations: %w", err)
	}
	out := make([]sem.AdHocMigration, len(records))
	for i, r := range records {
		out[i] = sem.AdHocMigration{Version: r.Version, ProcName: r.ProcName}
	}
	return out, nil
}

// ValidateAgainstPrevious loads the stored baseline and runs
// sem.ValidatePreviousSchema against reg's current versioning, returning
// every violation spec §4.4.4 defines (version regressions, removed
// @CREATE/@DELETE annotations).
func (s *Store) ValidateAgainstPrevious(reg *sem.Registries) ([]error, error) {
	previous, err := s.LoadSchema()
	if err != nil {
		return nil, err
	}
	current := make(map[string]sem.SchemaVersioning, reg.Tables.Len())
	for _, name := range reg.Tables.Keys() {
		table, _ := reg.Tables.Lookup(name)
		current[table.Name] = table.Versioning
	}
	return sem.ValidatePreviousSchema(previous, current), nil
}
