package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"siaga-desk/config"
	"siaga-desk/core/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewDB opens the configured database. Postgres is the production driver;
// sqlite is used for single-node home deployments and in tests.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	driver := EffectiveDriver(cfg)
	var db *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = "data/siaga.db"
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create db dir: %w", mkErr)
			}
		}
		dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// modernc sqlite serializes writes itself; a single connection
			// avoids SQLITE_BUSY under concurrent handlers.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sql.Open("pgx", cfg.DBURL)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if logger != nil {
		logger.Printf("db connected driver=%s", driver)
	}
	return db, nil
}

func EffectiveDriver(cfg *config.AppConfig) string {
	if cfg == nil {
		return DriverPostgres
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if driver == "" {
		driver = DriverPostgres
	}
	if driver == "sqlite3" {
		driver = DriverSQLite
	}
	if driver == DriverPostgres && strings.TrimSpace(cfg.DBPath) != "" && strings.TrimSpace(cfg.DBURL) == "" {
		driver = DriverSQLite
	}
	return driver
}

// rebind converts ? placeholders to $n for postgres. Queries are written with
// ? so the same statements run on both drivers.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
