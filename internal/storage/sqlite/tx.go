package sqlite

import (
	"context"
	"database/sql"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"cricketstats/internal/cricsheet"
	"cricketstats/internal/ddl"
)

// Insert column lists follow the DDL declaration order; row values are
// supplied in the same order.
var (
	matchColumns    = columnsOf(MatchesTable)
	playerColumns   = columnsOf(PlayersTable)
	deliveryColumns = columnsOf(InningsTable)
)

func columnsOf(table string) []string {
	for _, def := range Schema() {
		if def.FQN == table {
			return def.ColumnNames()
		}
	}
	panic("sqlite: no schema for table " + table)
}

// Tx is one open transaction on a Repository.
type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := t.tx.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "sqlite: exec")
	}
	return nil
}

// MatchExists reports whether a match row with the given identifier exists.
func (t *Tx) MatchExists(ctx context.Context, matchID string) (bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("1").From(ddl.QuoteIdent(MatchesTable)).
		Where(sb.Equal("match_id", matchID)).
		Limit(1)
	query, args := sb.Build()

	var one int
	err := t.tx.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "sqlite: lookup match")
	}
	return true, nil
}

// InsertMatch inserts one match row. A duplicate identifier surfaces as a
// constraint violation; see IsConstraintViolation.
func (t *Tx) InsertMatch(ctx context.Context, m cricsheet.Match) error {
	_, err := t.insertRows(ctx, MatchesTable, matchColumns, false, [][]any{{
		m.ID, m.Date, m.City, m.Venue, m.Gender, m.MatchType, m.Season,
		m.Team1, m.Team2, m.TossWinner, m.TossDecision, m.Winner, m.WinType, m.WinMargin,
	}})
	return err
}

// InsertPlayers inserts players with INSERT OR IGNORE and returns how many
// rows were actually added.
func (t *Tx) InsertPlayers(ctx context.Context, players []cricsheet.Player) (int64, error) {
	rows := make([][]any, 0, len(players))
	for _, p := range players {
		rows = append(rows, []any{p.ID, p.Name})
	}
	return t.insertRows(ctx, PlayersTable, playerColumns, true, rows)
}

// InsertDeliveries appends delivery rows. There is no duplicate check.
func (t *Tx) InsertDeliveries(ctx context.Context, deliveries []cricsheet.Delivery) (int64, error) {
	rows := make([][]any, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, []any{
			d.MatchID, d.Team, d.Over, d.Ball, d.Batter, d.Bowler,
			d.RunsBatter, d.RunsExtras, d.RunsTotal, d.Wicket,
		})
	}
	return t.insertRows(ctx, InningsTable, deliveryColumns, false, rows)
}

// insertRows prepares a single-row INSERT once and executes it per row.
func (t *Tx) insertRows(ctx context.Context, table string, columns []string, ignore bool, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	if ignore {
		ib.InsertIgnoreInto(ddl.QuoteIdent(table))
	} else {
		ib.InsertInto(ddl.QuoteIdent(table))
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.QuoteIdent(c)
	}
	ib.Cols(quoted...).Values(rows[0]...)
	query, _ := ib.Build()

	stmt, err := t.tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, errors.Wrapf(err, "sqlite: prepare insert into %s", table)
	}
	defer stmt.Close()

	var affected int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return affected, errors.Errorf("sqlite: insert into %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return affected, errors.Wrapf(err, "sqlite: insert into %s", table)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}
	return affected, nil
}
