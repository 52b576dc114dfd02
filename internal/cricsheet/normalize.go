package cricsheet

import (
	"strconv"
	"strings"

	"github.com/guregu/null"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidDocument is returned when the input is not a JSON object.
var ErrInvalidDocument = errors.New("cricsheet: invalid document")

// Normalize projects a match document into flat records. It is a pure
// function of doc.Raw.
func Normalize(doc Document) (NormalizedMatch, error) {
	if !gjson.ValidBytes(doc.Raw) {
		return NormalizedMatch{}, errors.Wrapf(ErrInvalidDocument, "%s: malformed JSON", doc.Path)
	}
	root := gjson.ParseBytes(doc.Raw)
	if !root.IsObject() {
		return NormalizedMatch{}, errors.Wrapf(ErrInvalidDocument, "%s: top-level value is not an object", doc.Path)
	}

	info := root.Get("info")
	m := projectMatch(info)

	return NormalizedMatch{
		Match:      m,
		Players:    projectPlayers(info),
		Deliveries: projectDeliveries(m.ID, root.Get("innings")),
	}, nil
}

// MatchID derives the match identifier from an info section:
//
//	<dates[0]>_<teams[0]>_vs_<teams[1]>_<venue>
//
// Missing components become empty strings, so documents sharing all four
// components collide.
func MatchID(info gjson.Result) string {
	var sb strings.Builder
	sb.WriteString(info.Get("dates.0").String())
	sb.WriteByte('_')
	sb.WriteString(info.Get("teams.0").String())
	sb.WriteString("_vs_")
	sb.WriteString(info.Get("teams.1").String())
	sb.WriteByte('_')
	sb.WriteString(info.Get("venue").String())
	return sb.String()
}

func projectMatch(info gjson.Result) Match {
	m := Match{
		ID:           MatchID(info),
		Date:         optString(info.Get("dates.0")),
		City:         optString(info.Get("city")),
		Venue:        optString(info.Get("venue")),
		Gender:       optString(info.Get("gender")),
		MatchType:    optString(info.Get("match_type")),
		Season:       optString(info.Get("season")),
		Team1:        optString(info.Get("teams.0")),
		Team2:        optString(info.Get("teams.1")),
		TossWinner:   optString(info.Get("toss.winner")),
		TossDecision: optString(info.Get("toss.decision")),
		Winner:       optString(info.Get("outcome.winner")),
	}

	// First pair in document order; no precedence between runs and wickets.
	if by := info.Get("outcome.by"); by.IsObject() {
		by.ForEach(func(k, v gjson.Result) bool {
			m.WinType = null.StringFrom(k.String())
			m.WinMargin = optInt(v)
			return false
		})
	}
	return m
}

func projectPlayers(info gjson.Result) []Player {
	rosters := info.Get("players")
	if !rosters.IsObject() {
		return nil
	}
	people := info.Get("registry.people").Map()

	var out []Player
	seen := make(map[string]struct{})
	rosters.ForEach(func(_, roster gjson.Result) bool {
		if !roster.IsArray() {
			return true
		}
		for _, name := range roster.Array() {
			id := people[name.String()]
			if id.Type != gjson.String || id.Str == "" {
				continue
			}
			if _, dup := seen[id.Str]; dup {
				continue
			}
			seen[id.Str] = struct{}{}
			out = append(out, Player{ID: id.Str, Name: name.String()})
		}
		return true
	})
	return out
}

func projectDeliveries(matchID string, innings gjson.Result) []Delivery {
	if !innings.IsArray() {
		return nil
	}

	var out []Delivery
	for _, inning := range innings.Array() {
		team := optString(inning.Get("team"))
		overs := inning.Get("overs")
		if !overs.IsArray() {
			continue
		}
		for _, over := range overs.Array() {
			overNum := optInt(over.Get("over"))
			balls := over.Get("deliveries")
			if !balls.IsArray() {
				continue
			}
			for i, d := range balls.Array() {
				out = append(out, Delivery{
					MatchID:    matchID,
					Team:       team,
					Over:       overNum,
					Ball:       int64(i + 1),
					Batter:     optString(d.Get("batter")),
					Bowler:     optString(d.Get("bowler")),
					RunsBatter: optInt(d.Get("runs.batter")),
					RunsExtras: optInt(d.Get("runs.extras")),
					RunsTotal:  optInt(d.Get("runs.total")),
					Wicket:     rawJSON(d.Get("wickets")),
				})
			}
		}
	}
	return out
}

func optString(r gjson.Result) null.String {
	if !r.Exists() || r.Type == gjson.Null {
		return null.String{}
	}
	return null.StringFrom(r.String())
}

func optInt(r gjson.Result) null.Int {
	switch r.Type {
	case gjson.Number:
		return null.IntFrom(r.Int())
	case gjson.String:
		if n, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64); err == nil {
			return null.IntFrom(n)
		}
	}
	return null.Int{}
}

// rawJSON keeps a sub-structure as compact JSON text. An absent or null
// element encodes as the JSON literal null, never as SQL NULL.
func rawJSON(r gjson.Result) null.String {
	if !r.Exists() || r.Type == gjson.Null {
		return null.StringFrom("null")
	}
	return null.StringFrom(gjson.Get(r.Raw, "@ugly").Raw)
}
