// Package snapshot persists the previous-schema baseline and the ad-hoc
// migration registry across separate compiler invocations, so
// `--previous_schema` validation (spec §4.4.4) and
// `@schema_ad_hoc_migration` bookkeeping (spec §3.3) survive a process
// restart. Grounded directly on the teacher's db.Connect /
// db.Migrate shape in db/sqlite.go: same libsql-URL-or-file DSN
// detection, same gorm.Open/PRAGMA/AutoMigrate sequence, repurposed from
// staging/apply/session persistence to schema-snapshot persistence.
package snapshot

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cqllang/cqlc/internal/sem"
)

// DefaultDSNEnv names the environment variable cmd/cqlc reads the
// snapshot database location from, the way the teacher reads
// MORFX_LIBSQL_AUTH_TOKEN for its own staging store's auth token.
const DefaultDSNEnv = "CQLC_SNAPSHOT_DSN"

// AuthTokenEnv names the libsql auth token environment variable, read the
// same way the teacher reads its own.
const AuthTokenEnv = "CQLC_LIBSQL_AUTH_TOKEN"

// Store wraps a gorm connection to the snapshot database.
type Store struct {
	db *gorm.DB
}

// Connect establishes a connection to dsn (a file path or a libsql://
// URL) and runs migrations. If dsn is empty, it falls back to
// DefaultDSNEnv, loading a .env file first via godotenv the same way the
// teacher's CLI loads credentials for its own DB connection.
func Connect(dsn string, debug bool) (*Store, error) {
	_ = godotenv.Load()
	if dsn == "" {
		dsn = os.Getenv(DefaultDSNEnv)
	}
	if dsn == "" {
		dsn = "cqlc_snapshot.db"
	}

	if !isURL(dsn) {
		dir := filepath.Dir(dsn)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("snapshot: creating database directory: %w", err)
			}
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		token := os.Getenv(AuthTokenEnv)
		if token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot: creating libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn})
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("snapshot: connecting: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("snapshot: migrating: %w", err)
	}

	return &Store{db: db}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql")
}

// Migrate runs the snapshot store's own schema migrations (confusingly
// named the same as the CQL-level schema migrations it stores — this one
// is gorm's AutoMigrate against the snapshot database itself).
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SchemaRecord{}, &MigrationRecord{})
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
