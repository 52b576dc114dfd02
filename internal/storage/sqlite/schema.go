package sqlite

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cricketstats/internal/ddl"
)

const (
	MatchesTable = "matches"
	InningsTable = "innings"
	PlayersTable = "players"
)

// Schema returns the table definitions in creation order.
func Schema() []ddl.TableDef {
	return []ddl.TableDef{
		{
			FQN: MatchesTable,
			Columns: []ddl.ColumnDef{
				{Name: "match_id", SQLType: "TEXT", PrimaryKey: true},
				{Name: "date", SQLType: "TEXT", Nullable: true},
				{Name: "city", SQLType: "TEXT", Nullable: true},
				{Name: "venue", SQLType: "TEXT", Nullable: true},
				{Name: "gender", SQLType: "TEXT", Nullable: true},
				{Name: "match_type", SQLType: "TEXT", Nullable: true},
				{Name: "season", SQLType: "TEXT", Nullable: true},
				{Name: "team1", SQLType: "TEXT", Nullable: true},
				{Name: "team2", SQLType: "TEXT", Nullable: true},
				{Name: "toss_winner", SQLType: "TEXT", Nullable: true},
				{Name: "toss_decision", SQLType: "TEXT", Nullable: true},
				{Name: "winner", SQLType: "TEXT", Nullable: true},
				{Name: "win_type", SQLType: "TEXT", Nullable: true},
				{Name: "win_margin", SQLType: "INTEGER", Nullable: true},
			},
		},
		{
			FQN: InningsTable,
			Columns: []ddl.ColumnDef{
				{Name: "inning_id", SQLType: "INTEGER", AutoIncrement: true},
				{Name: "match_id", SQLType: "TEXT", Nullable: true},
				{Name: "team", SQLType: "TEXT", Nullable: true},
				{Name: "over", SQLType: "INTEGER", Nullable: true},
				{Name: "ball", SQLType: "INTEGER", Nullable: true},
				{Name: "batter", SQLType: "TEXT", Nullable: true},
				{Name: "bowler", SQLType: "TEXT", Nullable: true},
				{Name: "runs_batter", SQLType: "INTEGER", Nullable: true},
				{Name: "runs_extras", SQLType: "INTEGER", Nullable: true},
				{Name: "runs_total", SQLType: "INTEGER", Nullable: true},
				{Name: "wicket", SQLType: "TEXT", Nullable: true},
			},
			ForeignKeys: []ddl.ForeignKeyDef{
				{Column: "match_id", RefTable: MatchesTable, RefColumn: "match_id"},
			},
		},
		{
			FQN: PlayersTable,
			Columns: []ddl.ColumnDef{
				{Name: "player_id", SQLType: "TEXT", PrimaryKey: true},
				{Name: "name", SQLType: "TEXT", Nullable: true},
			},
		},
	}
}

// EnsureSchema creates the database file and its tables when the file does
// not exist yet. An existing file is left untouched; its schema is never
// inspected or migrated. It reports whether the store was created.
func EnsureSchema(ctx context.Context, cfg Config, logger *zap.Logger) (bool, error) {
	log := logger.With(zap.String("db", cfg.Path))

	if _, err := os.Stat(cfg.Path); err == nil {
		log.Info("database already exists, skipping creation")
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "sqlite: stat %s", cfg.Path)
	}

	stmts := make([]string, 0, 3)
	for _, td := range Schema() {
		stmt, err := ddl.BuildCreateTableSQL(td)
		if err != nil {
			return false, errors.Wrapf(err, "sqlite: build %s", td.FQN)
		}
		stmts = append(stmts, stmt)
	}

	repo, closeFn, err := NewRepository(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer closeFn()

	err = repo.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range stmts {
			if err := tx.exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "sqlite: create schema")
	}

	log.Info("database created")
	return true, nil
}
