package migrations

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	shipbridge "github.com/goliatone/go-shipbridge"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const rootDir = "data/sql/migrations"

// Dialect ties a supported database engine to its database/sql driver, its
// bun dialect and the migration directory written for it.
type Dialect struct {
	Name      string
	SQLDriver string
	Dir       string
	// MaxOpenConns caps the pool when > 0. SQLite takes a single writer.
	MaxOpenConns int

	bun func() schema.Dialect
}

var (
	Postgres = Dialect{
		Name:      "postgres",
		SQLDriver: core.DriverPostgres,
		Dir:       rootDir,
		bun:       func() schema.Dialect { return pgdialect.New() },
	}
	SQLite = Dialect{
		Name:         "sqlite",
		SQLDriver:    core.DriverSQLite,
		Dir:          rootDir + "/sqlite",
		MaxOpenConns: 1,
		bun:          func() schema.Dialect { return sqlitedialect.New() },
	}
)

// ForDriver maps a configured driver name to its dialect.
func ForDriver(driver string) (Dialect, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case core.DriverSQLite, "sqlite":
		return SQLite, nil
	case core.DriverPostgres, "pgx", "pg":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

func (d Dialect) Bun() schema.Dialect {
	return d.bun()
}

// Files returns the dialect's migration directory from the embedded tree, or
// from source when one is given, along with the migration names in order.
// Every up migration must have a matching down migration.
func (d Dialect) Files(source fs.FS) (fs.FS, []string, error) {
	if source == nil {
		source = shipbridge.GetMigrationsFS()
	}
	dir, err := fs.Sub(source, d.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("migrations: resolve %s: %w", d.Dir, err)
	}
	ups, err := fs.Glob(dir, "*.up.sql")
	if err != nil {
		return nil, nil, fmt.Errorf("migrations: glob %s: %w", d.Dir, err)
	}
	if len(ups) == 0 {
		return nil, nil, fmt.Errorf("migrations: %s has no %s migrations", d.Dir, d.Name)
	}
	names := make([]string, 0, len(ups))
	for _, up := range ups {
		name := strings.TrimSuffix(up, ".up.sql")
		if _, err := fs.Stat(dir, name+".down.sql"); err != nil {
			return nil, nil, fmt.Errorf("migrations: %s/%s has no down migration", d.Dir, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return dir, names, nil
}

// Registrar is the part of the persistence client that accepts SQL
// migrations.
type Registrar interface {
	RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations
}

// Register adds the dialect's embedded migrations to client and returns the
// names it registered.
func Register(client Registrar, d Dialect) ([]string, error) {
	if client == nil {
		return nil, fmt.Errorf("migrations: client is required")
	}
	dir, names, err := d.Files(nil)
	if err != nil {
		return nil, err
	}
	client.RegisterSQLMigrations(dir)
	return names, nil
}
