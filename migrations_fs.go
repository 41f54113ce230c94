package shipbridge

import (
	"embed"
	"io/fs"
)

// migrationsFS contains the shipbridge SQL migration tree, including the
// sqlite dialect under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

func GetMigrationsFS() fs.FS {
	return migrationsFS
}
