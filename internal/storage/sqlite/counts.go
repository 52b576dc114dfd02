package sqlite

import (
	"context"

	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"cricketstats/internal/ddl"
)

// TableCounts is the row count of each relation.
type TableCounts struct {
	Matches int64
	Innings int64
	Players int64
}

// Counts returns the current row count of every relation.
func (r *Repository) Counts(ctx context.Context) (TableCounts, error) {
	var tc TableCounts
	for _, c := range []struct {
		table string
		dst   *int64
	}{
		{MatchesTable, &tc.Matches},
		{InningsTable, &tc.Innings},
		{PlayersTable, &tc.Players},
	} {
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("COUNT(*)").From(ddl.QuoteIdent(c.table))
		query, args := sb.Build()
		if err := r.db.GetContext(ctx, c.dst, query, args...); err != nil {
			return TableCounts{}, errors.Wrapf(err, "sqlite: count %s", c.table)
		}
	}
	return tc, nil
}
