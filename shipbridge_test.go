package shipbridge

import (
	"io/fs"
	"testing"
)

func TestMigrationsFSCarriesBothDialects(t *testing.T) {
	fsys := GetMigrationsFS()
	for _, path := range []string{
		"data/sql/migrations/00001_shipbridge_core.up.sql",
		"data/sql/migrations/sqlite/00001_shipbridge_core.up.sql",
	} {
		if _, err := fs.Stat(fsys, path); err != nil {
			t.Fatalf("expected %s in migrations fs: %v", path, err)
		}
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}
