package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildCreateTableSQL covers the rendered statement for valid definitions
// and the error surface for invalid ones.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name: "nullable column and composite primary key",
			def: TableDef{
				FQN: "t",
				Columns: []ColumnDef{
					{Name: "a", SQLType: "TEXT", PrimaryKey: true},
					{Name: "b", SQLType: "INTEGER", PrimaryKey: true},
					{Name: "c", SQLType: "TEXT", Nullable: true},
				},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"t\" (\n" +
				"  \"a\" TEXT NOT NULL,\n" +
				"  \"b\" INTEGER NOT NULL,\n" +
				"  \"c\" TEXT,\n" +
				"  PRIMARY KEY (\"a\", \"b\")\n);",
		},
		{
			name: "autoincrement column is rendered inline",
			def: TableDef{
				FQN: "events",
				Columns: []ColumnDef{
					{Name: "id", SQLType: "INTEGER", AutoIncrement: true},
					{Name: "over", SQLType: "INTEGER", Nullable: true},
				},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"events\" (\n" +
				"  \"id\" INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
				"  \"over\" INTEGER\n);",
		},
		{
			name: "autoincrement requires INTEGER",
			def: TableDef{
				FQN:     "t",
				Columns: []ColumnDef{{Name: "id", SQLType: "TEXT", AutoIncrement: true}},
			},
			errContains: "must be INTEGER",
		},
		{
			name: "autoincrement cannot mix with primary key columns",
			def: TableDef{
				FQN: "t",
				Columns: []ColumnDef{
					{Name: "id", SQLType: "INTEGER", AutoIncrement: true},
					{Name: "k", SQLType: "TEXT", PrimaryKey: true},
				},
			},
			errContains: "mixes an autoincrement column",
		},
		{
			name: "foreign key constraint",
			def: TableDef{
				FQN: "child",
				Columns: []ColumnDef{
					{Name: "parent_id", SQLType: "TEXT", Nullable: true},
				},
				ForeignKeys: []ForeignKeyDef{{Column: "parent_id", RefTable: "parent", RefColumn: "id"}},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"child\" (\n" +
				"  \"parent_id\" TEXT,\n" +
				"  FOREIGN KEY (\"parent_id\") REFERENCES \"parent\" (\"id\")\n);",
		},
		{
			name: "foreign key on unknown column",
			def: TableDef{
				FQN:         "child",
				Columns:     []ColumnDef{{Name: "a", SQLType: "TEXT"}},
				ForeignKeys: []ForeignKeyDef{{Column: "b", RefTable: "p", RefColumn: "id"}},
			},
			errContains: "unknown column b",
		},
		{
			name: "dotted FQN quotes each segment",
			def: TableDef{
				FQN:     "main.t",
				Columns: []ColumnDef{{Name: "x", SQLType: "TEXT", Nullable: true}},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"main\".\"t\" (\n  \"x\" TEXT\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, got)
		})
	}
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}

func TestColumnNamesSkipsAutoIncrement(t *testing.T) {
	t.Parallel()

	def := TableDef{
		FQN: "t",
		Columns: []ColumnDef{
			{Name: "id", SQLType: "INTEGER", AutoIncrement: true},
			{Name: "a", SQLType: "TEXT"},
			{Name: "b", SQLType: "TEXT"},
		},
	}
	assert.Equal(t, []string{"a", "b"}, def.ColumnNames())
}
