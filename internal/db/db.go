package db

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the local store and applies migrations. SQLite paths get
// their directory created; Postgres connections are retried while the server
// comes up.
func Open(driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open: empty dsn")
	}

	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case DriverSQLite:
		conn, err = openSQLite(dsn)
	case DriverPostgres:
		conn, err = openPostgres(dsn)
	default:
		return nil, fmt.Errorf("open: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return conn, nil
}

func openSQLite(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	conn, err := sqlx.Connect(DriverSQLite, "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open: sqlite: %w", err)
	}
	// one writer; keeps transactions and plain calls on the same connection
	conn.SetMaxOpenConns(1)
	log.Info().Str("path", path).Msg("opened sqlite store")
	return conn, nil
}

func openPostgres(databaseURL string) (*sqlx.DB, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *sqlx.DB
		conn, err = sqlx.Connect(DriverPostgres, databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return conn, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		time.Sleep(retryInterval)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations executes the embedded "*.up.sql" files for the connection's
// driver in name order. Every statement is idempotent, so it runs on each
// start.
func RunMigrations(conn *sqlx.DB) error {
	dir := path.Join("migrations", conn.DriverName())
	files, err := fs.Glob(migrations, path.Join(dir, "*.up.sql"))
	if err != nil {
		log.Error().Err(err).Msg("failed to list up migrations")
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations for driver %q", conn.DriverName())
	}

	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := migrations.ReadFile(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("failed to read migration file")
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		for _, stmt := range strings.Split(string(sqlBytes), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := conn.Exec(stmt); err != nil {
				return fmt.Errorf("error executing migration %q: %w", file, err)
			}
		}
	}
	return nil
}
