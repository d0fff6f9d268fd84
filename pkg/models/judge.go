package models

import (
	"sort"
	"strings"
	"time"
)

// Judge represents one judge scraped from the tournament site. The ID is the
// site's judge_person_id and is the only stable key: names get retyped,
// schools change between seasons, and paradigms are edited freely.
type Judge struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	School    string    `json:"school,omitempty"`
	Paradigm  string    `json:"paradigm,omitempty"` // markdown
	SourceURL string    `json:"source_url"`
	Ballots   []Ballot  `json:"ballots,omitempty"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ballot is one row of a judge's judging record.
type Ballot struct {
	Tournament string `json:"tournament"`
	Level      string `json:"level,omitempty"`
	Date       string `json:"date"` // YYYY-MM-DD
	Event      string `json:"event,omitempty"`
	Round      string `json:"round"`
	Aff        string `json:"aff,omitempty"`
	Neg        string `json:"neg,omitempty"`
	Vote       string `json:"vote,omitempty"`   // "Aff" or "Neg"
	Result     string `json:"result,omitempty"` // panel outcome, e.g. "Aff 2-1"
}

// Key identifies a ballot within one judge's record. A judge sits at most
// once per round of a tournament day, so (tournament, date, round) is unique.
func (b Ballot) Key() string {
	return b.Tournament + "|" + b.Date + "|" + b.Round
}

// Equal reports whether two ballots carry the same field values.
func (b Ballot) Equal(other Ballot) bool {
	return b == other
}

// HasValidVote reports whether the ballot records an actual decision.
// Byes, forfeits and unsubmitted ballots leave the vote column empty or
// carry placeholder text.
func (b Ballot) HasValidVote() bool {
	v := strings.ToLower(strings.TrimSpace(b.Vote))
	return v == "aff" || v == "neg"
}

// SortBallots orders ballots by date, then tournament, then round, so that
// serialized records are stable across runs.
func SortBallots(ballots []Ballot) {
	sort.Slice(ballots, func(i, j int) bool {
		if ballots[i].Date != ballots[j].Date {
			return ballots[i].Date < ballots[j].Date
		}
		if ballots[i].Tournament != ballots[j].Tournament {
			return ballots[i].Tournament < ballots[j].Tournament
		}
		return ballots[i].Round < ballots[j].Round
	})
}

// Metrics holds per-judge numbers derived from ballots. They are recomputed
// whenever the ballot set changes; treat them as a cache, not source data.
type Metrics struct {
	RoundsJudged int     `json:"rounds_judged"`
	AffWinRate   float64 `json:"aff_win_rate"` // percent of valid votes for Aff
	PanelRounds  int     `json:"panel_rounds"`
	SquirrelRate float64 `json:"squirrel_rate"` // percent of panel rounds voted against the panel
}
