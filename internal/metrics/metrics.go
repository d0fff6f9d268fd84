// Package metrics derives per-judge numbers from ballots. Everything here
// is a pure function of the ballot set; the pipeline recomputes on every
// add or update and the metrics command recomputes on demand.
package metrics

import (
	"math"
	"strings"

	"github.com/tabscout/tabscout/pkg/models"
)

// Compute calculates metrics over a judge's ballots.
//
// RoundsJudged counts ballots with a valid Aff/Neg vote. AffWinRate is the
// percentage of those votes cast for the Aff. SquirrelRate considers panel
// rounds only (Result like "Aff 2-1"): it is the percentage where the
// judge's vote disagreed with the panel outcome.
func Compute(ballots []models.Ballot) models.Metrics {
	var m models.Metrics
	var affVotes, squirrels int

	for _, b := range ballots {
		if !b.HasValidVote() {
			continue
		}
		m.RoundsJudged++

		vote := strings.ToLower(strings.TrimSpace(b.Vote))
		if vote == "aff" {
			affVotes++
		}

		outcome, ok := panelOutcome(b.Result)
		if !ok {
			continue
		}
		m.PanelRounds++
		if vote != outcome {
			squirrels++
		}
	}

	if m.RoundsJudged > 0 {
		m.AffWinRate = round1(float64(affVotes) / float64(m.RoundsJudged) * 100)
	}
	if m.PanelRounds > 0 {
		m.SquirrelRate = round1(float64(squirrels) / float64(m.PanelRounds) * 100)
	}

	return m
}

// TeamMetrics holds per-judge numbers restricted to rounds involving one
// school. Unlike the judge-wide metrics, win rates here are from the team's
// perspective: how often did this judge's rounds go the team's way.
type TeamMetrics struct {
	Team         string  `json:"team"`
	RoundsJudged int     `json:"rounds_judged"`
	AffRounds    int     `json:"aff_rounds"`
	AffWinRate   float64 `json:"aff_win_rate"` // percent of team-aff rounds the aff won
	NegRounds    int     `json:"neg_rounds"`
	NegWinRate   float64 `json:"neg_win_rate"` // percent of team-neg rounds the neg won
	PanelRounds  int     `json:"panel_rounds"`
	SquirrelRate float64 `json:"squirrel_rate"`
}

// ComputeTeam calculates metrics over the subset of a judge's ballots that
// involve the given school. A ballot counts when the team name leads the Aff
// or Neg entry ("Lincoln AB" matches team "Lincoln"). The round outcome is
// the panel result when there is one, otherwise the judge's own vote.
func ComputeTeam(ballots []models.Ballot, team string) TeamMetrics {
	m := TeamMetrics{Team: team}
	team = strings.ToLower(strings.TrimSpace(team))
	if team == "" {
		return m
	}

	onSide := func(entry string) bool {
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(entry)), team)
	}

	var affWins, negWins, squirrels int

	for _, b := range ballots {
		if !b.HasValidVote() {
			continue
		}
		teamAff := onSide(b.Aff)
		teamNeg := onSide(b.Neg)
		if !teamAff && !teamNeg {
			continue
		}
		m.RoundsJudged++

		vote := strings.ToLower(strings.TrimSpace(b.Vote))
		outcome, panel := panelOutcome(b.Result)
		if !panel {
			outcome = vote
		}

		if teamAff {
			m.AffRounds++
			if outcome == "aff" {
				affWins++
			}
		}
		if teamNeg {
			m.NegRounds++
			if outcome == "neg" {
				negWins++
			}
		}

		if panel {
			m.PanelRounds++
			if vote != outcome {
				squirrels++
			}
		}
	}

	if m.AffRounds > 0 {
		m.AffWinRate = round1(float64(affWins) / float64(m.AffRounds) * 100)
	}
	if m.NegRounds > 0 {
		m.NegWinRate = round1(float64(negWins) / float64(m.NegRounds) * 100)
	}
	if m.PanelRounds > 0 {
		m.SquirrelRate = round1(float64(squirrels) / float64(m.PanelRounds) * 100)
	}

	return m
}

// panelOutcome extracts the winning side from a panel result string such as
// "Aff 2-1". Single-judge rounds have an empty Result and don't count as
// panels.
func panelOutcome(result string) (string, bool) {
	result = strings.TrimSpace(result)
	if result == "" || !strings.Contains(result, "-") {
		return "", false
	}
	fields := strings.Fields(result)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
