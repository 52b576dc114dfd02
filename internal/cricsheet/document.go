// Package cricsheet normalizes ball-by-ball match documents in the Cricsheet
// JSON format into flat match, player, and delivery records.
//
// Every nested field is optional. A missing or JSON-null field is projected to
// an invalid null.String / null.Int rather than failing the document; the only
// document-level failure is input that is not a JSON object.
package cricsheet

import (
	"github.com/guregu/null"
	"github.com/zeebo/xxh3"
)

// Document is one match's raw source bytes plus where they came from.
type Document struct {
	Path string
	Raw  []byte

	// Fingerprint is the xxh3 hash of Raw. Two documents that derive the same
	// match identifier can be told apart by it in logs.
	Fingerprint uint64
}

// NewDocument wraps raw bytes read from path.
func NewDocument(path string, raw []byte) Document {
	return Document{Path: path, Raw: raw, Fingerprint: xxh3.Hash(raw)}
}

// Match is one row of the matches relation.
type Match struct {
	ID           string      `db:"match_id"`
	Date         null.String `db:"date"`
	City         null.String `db:"city"`
	Venue        null.String `db:"venue"`
	Gender       null.String `db:"gender"`
	MatchType    null.String `db:"match_type"`
	Season       null.String `db:"season"`
	Team1        null.String `db:"team1"`
	Team2        null.String `db:"team2"`
	TossWinner   null.String `db:"toss_winner"`
	TossDecision null.String `db:"toss_decision"`
	Winner       null.String `db:"winner"`
	WinType      null.String `db:"win_type"`
	WinMargin    null.Int    `db:"win_margin"`
}

// Player is one row of the players relation, keyed by registry identifier.
type Player struct {
	ID   string `db:"player_id"`
	Name string `db:"name"`
}

// Delivery is one ball bowled. Ball is 1-based and renumbered within each
// over by enumeration order; it is never taken from the source.
type Delivery struct {
	MatchID    string      `db:"match_id"`
	Team       null.String `db:"team"`
	Over       null.Int    `db:"over"`
	Ball       int64       `db:"ball"`
	Batter     null.String `db:"batter"`
	Bowler     null.String `db:"bowler"`
	RunsBatter null.Int    `db:"runs_batter"`
	RunsExtras null.Int    `db:"runs_extras"`
	RunsTotal  null.Int    `db:"runs_total"`
	Wicket     null.String `db:"wicket"`
}

// NormalizedMatch is everything derived from one document.
type NormalizedMatch struct {
	Match      Match
	Players    []Player
	Deliveries []Delivery
}
