package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

const upTemplate = `-- {{.Name}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

const downTemplate = `-- rollback of {{.Name}}

`

// MigrationFile is a created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

var migrationName = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// CreateMigration writes the next sequential migration pair into dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(existing); n > 0 {
		last, _ := strconv.Atoi(strings.SplitN(existing[n-1], "_", 2)[0])
		next = last + 1
	}

	version := fmt.Sprintf("%06d", next)
	base := version + "_" + slug
	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: description,
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, err
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeTemplate(path, text string, mf *MigrationFile) error {
	tmpl := template.Must(template.New(filepath.Base(path)).Parse(text))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, mf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases name and joins its words with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the base names of the up migrations in fsys, in version order
func ListMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	type named struct {
		version int
		base    string
	}
	var found []named
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		found = append(found, named{version: v, base: strings.TrimSuffix(e.Name(), ".up.sql")})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].version < found[j].version })

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.base
	}
	return out, nil
}
