package database

import (
	"bytes"
	"io/fs"
	"path"
	"testing/fstest"
	"text/template"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	appfs "github.com/Pensezy/EduTrack-CM-sub003/fs"
)

var migrationFuncs = template.FuncMap{"q": pq.QuoteIdentifier}

// MigrationsFS renders the embedded migrations for the configured table names.
// Table and index names are quoted identifiers in the rendered SQL.
func MigrationsFS(tables core.TableNames) (fs.FS, error) {
	entries, err := fs.ReadDir(appfs.FS, MigrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading migrations")
	}

	rendered := make(fstest.MapFS, len(entries))
	for _, de := range entries {
		if de.IsDir() || path.Ext(de.Name()) != ".sql" {
			continue
		}
		fp := path.Join(MigrationsDir, de.Name())
		raw, err := fs.ReadFile(appfs.FS, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", de.Name())
		}
		tmpl, err := template.New(de.Name()).Funcs(migrationFuncs).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", de.Name())
		}
		var buf bytes.Buffer
		if err = tmpl.Execute(&buf, tables); err != nil {
			return nil, errors.Wrapf(err, "rendering %s", de.Name())
		}
		rendered[fp] = &fstest.MapFile{Data: buf.Bytes(), Mode: 0o444}
	}
	return rendered, nil
}
