package metadata

import (
	"database/sql"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wxoracle/wxoracle/pkg/migrate"
)

// embedProvider implements migrate.MigrationProvider by reading
// {version}_{name}.up.sql / .down.sql pairs and schema_migrations
// bookkeeping from migrations compiled into the binary via go:embed,
// since the metadata store ships no migrations directory on disk.
type embedProvider struct {
	fsys           fs.FS
	dir            string
	migrationTable string
	dbDriver       string
}

func newEmbedProvider(fsys fs.FS, dir, dbDriver string) *embedProvider {
	return &embedProvider{fsys: fsys, dir: dir, migrationTable: "schema_migrations", dbDriver: dbDriver}
}

var (
	upRegex   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downRegex = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

func (p *embedProvider) GetMigrations() ([]migrate.Migration, error) {
	entries, err := fs.ReadDir(p.fsys, p.dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	byVersion := make(map[int]*migrate.Migration)
	for _, e := range entries {
		name := e.Name()
		if m := upRegex.FindStringSubmatch(name); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("invalid migration version in %s: %w", name, err)
			}
			content, err := fs.ReadFile(p.fsys, p.dir+"/"+name)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			mig := byVersion[v]
			if mig == nil {
				mig = &migrate.Migration{Version: v, Name: strings.ReplaceAll(m[2], "_", " ")}
				byVersion[v] = mig
			}
			mig.Up = string(content)
		}
		if m := downRegex.FindStringSubmatch(name); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("invalid migration version in %s: %w", name, err)
			}
			content, err := fs.ReadFile(p.fsys, p.dir+"/"+name)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			mig := byVersion[v]
			if mig == nil {
				mig = &migrate.Migration{Version: v, Name: strings.ReplaceAll(m[2], "_", " ")}
				byVersion[v] = mig
			}
			mig.Down = string(content)
		}
	}

	out := make([]migrate.Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (p *embedProvider) CreateMigrationTable(db *sql.DB) error {
	var query string
	if p.dbDriver == "postgres" {
		query = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version INTEGER PRIMARY KEY, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`, p.migrationTable)
	} else {
		query = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version INTEGER PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)`, p.migrationTable)
	}
	_, err := db.Exec(query)
	return err
}

func (p *embedProvider) GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", p.migrationTable)).Scan(&version)
	return version, err
}

func (p *embedProvider) SetVersion(db migrate.DB, version int) error {
	var err error
	if version == 0 {
		_, err = db.Exec(fmt.Sprintf("DELETE FROM %s", p.migrationTable))
		return err
	}
	if p.dbDriver == "postgres" {
		_, err = db.Exec(fmt.Sprintf(`INSERT INTO %s (version, applied_at) VALUES ($1, CURRENT_TIMESTAMP) ON CONFLICT (version) DO UPDATE SET applied_at = CURRENT_TIMESTAMP`, p.migrationTable), version)
	} else {
		_, err = db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, p.migrationTable), version)
	}
	return err
}
