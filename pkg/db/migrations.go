package db

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
)

const migrationsLogPrefix = "db:migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// LoadMigrationFiles reads all .sql files from dir, sorted by name, and returns their contents.
// An empty dir loads the migrations compiled into the binary.
func LoadMigrationFiles(dir string) ([]string, error) {
	var fsys fs.FS
	root := "."
	if dir == "" {
		fsys = embeddedMigrations
		root = "migrations"
	} else {
		fsys = os.DirFS(dir)
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, migrationSource(dir), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		p := path.Join(root, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, p, err)
		}
		out = append(out, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), migrationSource(dir)))
	return out, nil
}

func migrationSource(dir string) string {
	if dir == "" {
		return "embedded migrations"
	}
	return dir
}
