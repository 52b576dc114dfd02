// Package report runs the read-only statistics queries over the store.
package report

import (
	"context"
	"sort"
	"strconv"

	"github.com/guregu/null"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrUnknownReport is returned by Run for a name not in Names().
var ErrUnknownReport = errors.New("report: unknown report")

// Report names accepted by Run.
const (
	TeamWinStatisticsName    = "team_win_statistics"
	HighestWinPercentageName = "highest_win_percentage"
	HighestStrikeRateName    = "highest_strike_rate"
)

// StrikeRateLimit caps the strike-rate leaderboard.
const StrikeRateLimit = 4

// teamResults lists each decided match once per participating team.
const teamResults = `
SELECT team1 AS team, gender, season, winner FROM matches WHERE winner IS NOT NULL
UNION ALL
SELECT team2 AS team, gender, season, winner FROM matches WHERE winner IS NOT NULL`

const teamWinStatisticsSQL = `
SELECT
  team,
  gender,
  season,
  COUNT(*) AS total_matches,
  SUM(CASE WHEN winner = team THEN 1 ELSE 0 END) AS total_wins,
  ROUND(100.0 * SUM(CASE WHEN winner = team THEN 1 ELSE 0 END) / COUNT(*), 2) AS win_percentage
FROM (` + teamResults + `
)
GROUP BY team, gender, season
ORDER BY team, gender, season`

const highestWinPercentageSQL = `
WITH ranked_teams AS (
  SELECT
    team,
    gender,
    ROUND(100.0 * SUM(CASE WHEN winner = team THEN 1 ELSE 0 END) / COUNT(*), 2) AS win_percentage,
    DENSE_RANK() OVER (
      PARTITION BY gender
      ORDER BY ROUND(100.0 * SUM(CASE WHEN winner = team THEN 1 ELSE 0 END) / COUNT(*), 2) DESC
    ) AS rnk
  FROM (` + teamResults + `
  )
  GROUP BY team, gender
)
SELECT team, gender, win_percentage
FROM ranked_teams
WHERE rnk = 1
ORDER BY gender, team`

// TeamWinStat is one row of the per-team, per-gender, per-season table.
type TeamWinStat struct {
	Team          null.String `db:"team"`
	Gender        null.String `db:"gender"`
	Season        null.String `db:"season"`
	TotalMatches  int64       `db:"total_matches"`
	TotalWins     int64       `db:"total_wins"`
	WinPercentage float64     `db:"win_percentage"`
}

// TeamWinPercentage is a top team within one gender.
type TeamWinPercentage struct {
	Team          null.String `db:"team"`
	Gender        null.String `db:"gender"`
	WinPercentage float64     `db:"win_percentage"`
}

// BatterStrikeRate is one leaderboard row. Runs and strike rate are null
// when every ball faced lacks a runs value.
type BatterStrikeRate struct {
	Batter     null.String `db:"batter"`
	TotalRuns  null.Int    `db:"total_runs"`
	TotalBalls int64       `db:"total_balls"`
	StrikeRate null.Float  `db:"strike_rate"`
}

// Reporter runs reports against an open store.
type Reporter struct {
	db *sqlx.DB
}

// New returns a Reporter over db. It never writes.
func New(db *sqlx.DB) *Reporter {
	return &Reporter{db: db}
}

// TeamWinStatistics counts matches and wins per team, gender and season.
// Matches without a winner are excluded.
func (r *Reporter) TeamWinStatistics(ctx context.Context) ([]TeamWinStat, error) {
	var out []TeamWinStat
	if err := r.db.SelectContext(ctx, &out, teamWinStatisticsSQL); err != nil {
		return nil, errors.Wrap(err, "report: team win statistics")
	}
	return out, nil
}

// HighestWinPercentage returns the top team per gender; ties all rank first.
func (r *Reporter) HighestWinPercentage(ctx context.Context) ([]TeamWinPercentage, error) {
	var out []TeamWinPercentage
	if err := r.db.SelectContext(ctx, &out, highestWinPercentageSQL); err != nil {
		return nil, errors.Wrap(err, "report: highest win percentage")
	}
	return out, nil
}

// HighestStrikeRate returns the StrikeRateLimit batters with the highest
// runs per hundred balls. Only deliveries of recorded matches count.
func (r *Reporter) HighestStrikeRate(ctx context.Context) ([]BatterStrikeRate, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		"innings.batter AS batter",
		"SUM(innings.runs_batter) AS total_runs",
		"COUNT(*) AS total_balls",
		"ROUND(SUM(innings.runs_batter) * 100.0 / COUNT(*), 2) AS strike_rate",
	).
		From("innings").
		Join("matches", "innings.match_id = matches.match_id").
		GroupBy("innings.batter").
		OrderBy("strike_rate DESC").
		Limit(StrikeRateLimit)
	query, args := sb.Build()

	var out []BatterStrikeRate
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, "report: highest strike rate")
	}
	return out, nil
}

type runner func(context.Context, *Reporter) (Table, error)

var reports = map[string]runner{
	TeamWinStatisticsName: func(ctx context.Context, r *Reporter) (Table, error) {
		rows, err := r.TeamWinStatistics(ctx)
		if err != nil {
			return Table{}, err
		}
		t := Table{
			Title:   "Team Win Statistics",
			Headers: []string{"Team", "Gender", "Season", "Total Matches", "Total Wins", "Win Percentage"},
		}
		for _, row := range rows {
			t.Rows = append(t.Rows, []string{
				str(row.Team), str(row.Gender), str(row.Season),
				itoa(row.TotalMatches), itoa(row.TotalWins), ftoa(row.WinPercentage),
			})
		}
		return t, nil
	},
	HighestWinPercentageName: func(ctx context.Context, r *Reporter) (Table, error) {
		rows, err := r.HighestWinPercentage(ctx)
		if err != nil {
			return Table{}, err
		}
		t := Table{
			Title:   "Highest Win Percentage",
			Headers: []string{"Team", "Gender", "Win Percentage"},
		}
		for _, row := range rows {
			t.Rows = append(t.Rows, []string{str(row.Team), str(row.Gender), ftoa(row.WinPercentage)})
		}
		return t, nil
	},
	HighestStrikeRateName: func(ctx context.Context, r *Reporter) (Table, error) {
		rows, err := r.HighestStrikeRate(ctx)
		if err != nil {
			return Table{}, err
		}
		t := Table{
			Title:   "Highest Strike Rate",
			Headers: []string{"Batter", "Total Runs", "Total Balls", "Strike Rate"},
		}
		for _, row := range rows {
			runs := ""
			if row.TotalRuns.Valid {
				runs = itoa(row.TotalRuns.Int64)
			}
			rate := ""
			if row.StrikeRate.Valid {
				rate = ftoa(row.StrikeRate.Float64)
			}
			t.Rows = append(t.Rows, []string{str(row.Batter), runs, itoa(row.TotalBalls), rate})
		}
		return t, nil
	},
}

// Names lists the available reports in sorted order.
func Names() []string {
	out := make([]string, 0, len(reports))
	for name := range reports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run executes the named report and returns it as a Table.
func (r *Reporter) Run(ctx context.Context, name string) (Table, error) {
	fn, ok := reports[name]
	if !ok {
		return Table{}, errors.Wrapf(ErrUnknownReport, "%q", name)
	}
	return fn(ctx, r)
}

// str renders a null string as empty.
func str(s null.String) string { return s.String }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
