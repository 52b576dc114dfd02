package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, INTEGER)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - AutoIncrement: render the column inline as INTEGER PRIMARY KEY AUTOINCREMENT
type ColumnDef struct {
	Name          string
	SQLType       string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
}

// ForeignKeyDef declares a single-column reference to another table. SQLite
// only enforces it when PRAGMA foreign_keys is on.
type ForeignKeyDef struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef holds the table name and an ordered list of columns plus any
// declared foreign keys.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKeyDef
}

// ColumnNames returns the column names in declaration order, skipping
// auto-increment columns the database populates itself.
func (t TableDef) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.AutoIncrement {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
