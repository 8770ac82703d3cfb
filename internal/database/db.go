package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the backing database.
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

// NewDB opens the configured database and wraps it with bun.
func NewDB(cfg Config) (*bun.DB, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return newSQLite(cfg.DSN, cfg.Debug)
	case DriverPostgres:
		return newPostgres(cfg.DSN, cfg.Debug)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteParams are applied by the driver to every pooled connection. The
// _pragma form is read by modernc.org/sqlite and the bare underscore keys by
// mattn/go-sqlite3; each driver ignores the other's. Transactions begin
// IMMEDIATE so a refresh takes the write lock up front and other writers wait
// on busy_timeout instead of failing.
var sqliteParams = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(NORMAL)",
	"_pragma=cache_size(-64000)",
	"_busy_timeout=5000",
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_cache_size=-64000",
	"_txlock=immediate",
}

// SQLiteDSN appends the connection parameters to dsn, leaving any key the
// caller already set alone.
func SQLiteDSN(dsn string) string {
	var extra []string
	for _, param := range sqliteParams {
		key := param[:strings.Index(param, "=")+1]
		value := param[len(key):]
		if key == "_pragma=" {
			name := value[:strings.Index(value, "(")]
			if strings.Contains(dsn, key+name) {
				continue
			}
		} else if strings.Contains(dsn, key) {
			continue
		}
		extra = append(extra, param)
	}
	if len(extra) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

func newSQLite(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, SQLiteDSN(dsn))
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	withDebug(db, debug)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func newPostgres(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	withDebug(db, debug)
	return db, nil
}

func withDebug(db *bun.DB, debug bool) {
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
}
