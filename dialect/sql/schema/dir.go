package schema

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// LoadDir reads plain-SQL migrations from a directory. Each migration is a
// pair of files named V<version>__<timestamp>__<description>.up.sql and
// .down.sql; the down file is optional. File contents load as raw-SQL
// operations, one per semicolon-terminated statement, so directory-authored
// migrations flow through the same executor, history and checksum machinery
// as code-authored ones.
func LoadDir(fsys fs.FS) ([]*Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	ups := make(map[string]string)
	downs := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch name := e.Name(); {
		case strings.HasSuffix(name, upSuffix):
			ups[strings.TrimSuffix(name, upSuffix)] = name
		case strings.HasSuffix(name, downSuffix):
			downs[strings.TrimSuffix(name, downSuffix)] = name
		}
	}
	for name := range downs {
		if _, ok := ups[name]; !ok {
			return nil, fmt.Errorf("schema: migration %q has a down file but no up file", name)
		}
	}
	var migrations []*Migration
	for name, file := range ups {
		up, err := readStatements(fsys, file)
		if err != nil {
			return nil, err
		}
		var down []Operation
		if downFile, ok := downs[name]; ok {
			if down, err = readStatements(fsys, downFile); err != nil {
				return nil, err
			}
		}
		mig, err := NewMigration(name, up, down)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, mig)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func readStatements(fsys fs.FS, name string) ([]Operation, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	var ops []Operation
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		ops = append(ops, &RawSQL{SQL: stmt})
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("schema: migration file %q has no statements", name)
	}
	return ops, nil
}
