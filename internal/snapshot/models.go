package snapshot

import (
	"time"

	"gorm.io/datatypes"
)

// SchemaRecord is one versioned schema object (a table or a column) as it
// existed the last time a compile ran `--previous_schema` with
// persistence enabled. Mirrors models.Stage's gorm-tag texture (typed
// varchar columns, JSON column for the variable part) but the schema
// this module actually needs: a versioning fact per named object, not a
// staged code edit.
type SchemaRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	Kind   string `gorm:"type:varchar(20);index;uniqueIndex:idx_schema_records_kind_object;not null"` // "table" or "column"
	Object string `gorm:"type:varchar(255);index;uniqueIndex:idx_schema_records_kind_object;not null"` // table name, or "table.column"
	Parent string `gorm:"type:varchar(255);index"`          // table name, empty for Kind=="table"

	CreateVersion int  `gorm:"default:0"`
	CreateSet     bool `gorm:"default:false"`
	DeleteVersion int  `gorm:"default:0"`
	DeleteSet     bool `gorm:"default:false"`
	Migrator      string `gorm:"type:varchar(255)"`
	Recreate      bool   `gorm:"default:false"`
	RecreateGroup string `gorm:"type:varchar(255)"`

	TypeHash uint64 `gorm:"default:0"` // only meaningful for Kind=="table"

	Annotations datatypes.JSON `gorm:"type:jsonb"` // free-form @attribute(cql:...) pairs, if any

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SchemaRecord) TableName() string { return "schema_records" }

// MigrationRecord is one applied `@schema_ad_hoc_migration(version,
// proc_name)` entry, kept so a later compile doesn't re-emit a CALL for
// a migration that has already run against the deployed database.
type MigrationRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	Version  int    `gorm:"uniqueIndex;not null"`
	ProcName string `gorm:"type:varchar(255);not null"`

	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationRecord) TableName() string { return "schema_migrations" }
