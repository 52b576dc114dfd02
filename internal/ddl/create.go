// Package ddl defines a small model for SQL table definitions and renders it
// as SQLite CREATE TABLE statements.
//
// The builder here:
//   - Uses double-quoted identifiers: "table", "col".
//   - Emits CREATE TABLE IF NOT EXISTS.
//   - Renders PRIMARY KEY and FOREIGN KEY as separate table constraints,
//     except for AUTOINCREMENT columns which SQLite requires inline.
package ddl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the given
// table definition. The statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  PRIMARY KEY ("pk1", "pk2"),
//	  FOREIGN KEY ("col1") REFERENCES "other" ("id")
//	);
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", errors.New("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", errors.New("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	pks := make([]string, 0, len(t.Columns))
	known := make(map[string]struct{}, len(t.Columns))
	autoInc := 0

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", errors.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", errors.Errorf("ddl: column %s missing SQLType", name)
		}
		known[name] = struct{}{}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')

		if c.AutoIncrement {
			if !strings.EqualFold(typ, "INTEGER") {
				return "", errors.Errorf("ddl: autoincrement column %s must be INTEGER, got %s", name, typ)
			}
			autoInc++
			sb.WriteString("INTEGER PRIMARY KEY AUTOINCREMENT")
			cols = append(cols, sb.String())
			continue
		}

		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(name))
		}
	}

	if autoInc > 1 {
		return "", errors.Errorf("ddl: table %s has %d autoincrement columns, want at most 1", fqn, autoInc)
	}
	if autoInc == 1 && len(pks) > 0 {
		return "", errors.Errorf("ddl: table %s mixes an autoincrement column with PRIMARY KEY columns", fqn)
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	for _, fk := range t.ForeignKeys {
		if _, ok := known[fk.Column]; !ok {
			return "", errors.Errorf("ddl: foreign key on unknown column %s in table %s", fk.Column, fqn)
		}
		if strings.TrimSpace(fk.RefTable) == "" || strings.TrimSpace(fk.RefColumn) == "" {
			return "", errors.Errorf("ddl: foreign key on %s.%s has no reference", fqn, fk.Column)
		}
		cols = append(cols, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			QuoteIdent(fk.Column), quoteFQN(fk.RefTable), QuoteIdent(fk.RefColumn)))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// QuoteIdent double-quotes a single identifier, escaping embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
