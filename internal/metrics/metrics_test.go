package metrics

import (
	"testing"

	"github.com/tabscout/tabscout/pkg/models"
)

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil)
	if m.RoundsJudged != 0 || m.AffWinRate != 0 || m.SquirrelRate != 0 {
		t.Errorf("Compute(nil) = %+v, want zeros", m)
	}
}

func TestCompute_AffWinRate(t *testing.T) {
	ballots := []models.Ballot{
		{Vote: "Aff"},
		{Vote: "Aff"},
		{Vote: "Neg"},
		{Vote: "Bye"}, // no valid vote, excluded
		{Vote: ""},
	}

	m := Compute(ballots)

	if m.RoundsJudged != 3 {
		t.Errorf("RoundsJudged = %d, want 3", m.RoundsJudged)
	}
	if m.AffWinRate != 66.7 {
		t.Errorf("AffWinRate = %v, want 66.7", m.AffWinRate)
	}
}

func TestCompute_SquirrelRate(t *testing.T) {
	ballots := []models.Ballot{
		// Panel round, judge agreed with the panel.
		{Vote: "Aff", Result: "Aff 2-1"},
		// Panel round, judge sat against the outcome: a squirrel.
		{Vote: "Neg", Result: "Aff 2-1"},
		// Single-judge round: not a panel, excluded from squirrel rate.
		{Vote: "Aff", Result: ""},
		{Vote: "Neg", Result: "Neg 3-0"},
	}

	m := Compute(ballots)

	if m.PanelRounds != 3 {
		t.Errorf("PanelRounds = %d, want 3", m.PanelRounds)
	}
	if m.SquirrelRate != 33.3 {
		t.Errorf("SquirrelRate = %v, want 33.3", m.SquirrelRate)
	}
	if m.RoundsJudged != 4 {
		t.Errorf("RoundsJudged = %d, want 4", m.RoundsJudged)
	}
}

func TestComputeTeam_FiltersToTeamRounds(t *testing.T) {
	ballots := []models.Ballot{
		// Team on aff, single judge, judge voted aff: an aff win.
		{Aff: "Lincoln AB", Neg: "Washington CD", Vote: "Aff"},
		// Team on aff, panel went neg: an aff loss despite this judge's vote.
		{Aff: "Lincoln XY", Neg: "North EF", Vote: "Aff", Result: "Neg 2-1"},
		// Team on neg, judge voted neg: a neg win.
		{Aff: "South GH", Neg: "Lincoln AB", Vote: "Neg"},
		// Other schools only: excluded.
		{Aff: "East JK", Neg: "West LM", Vote: "Aff"},
		// Team round without a valid vote: excluded.
		{Aff: "Lincoln AB", Neg: "North EF", Vote: "Bye"},
	}

	m := ComputeTeam(ballots, "Lincoln")

	if m.RoundsJudged != 3 {
		t.Errorf("RoundsJudged = %d, want 3", m.RoundsJudged)
	}
	if m.AffRounds != 2 || m.AffWinRate != 50.0 {
		t.Errorf("aff = %d rounds at %v%%, want 2 rounds at 50.0%%", m.AffRounds, m.AffWinRate)
	}
	if m.NegRounds != 1 || m.NegWinRate != 100.0 {
		t.Errorf("neg = %d rounds at %v%%, want 1 round at 100.0%%", m.NegRounds, m.NegWinRate)
	}
	if m.PanelRounds != 1 || m.SquirrelRate != 100.0 {
		t.Errorf("panel = %d rounds at %v%% squirrel, want 1 round at 100.0%%", m.PanelRounds, m.SquirrelRate)
	}
}

func TestComputeTeam_NoTeamRounds(t *testing.T) {
	ballots := []models.Ballot{
		{Aff: "East JK", Neg: "West LM", Vote: "Aff"},
	}

	m := ComputeTeam(ballots, "Lincoln")

	if m.RoundsJudged != 0 || m.AffWinRate != 0 || m.NegWinRate != 0 {
		t.Errorf("ComputeTeam() = %+v, want zeros for uninvolved team", m)
	}
}

func TestCompute_CaseInsensitiveVotes(t *testing.T) {
	ballots := []models.Ballot{
		{Vote: "AFF", Result: "aff 2-1"},
		{Vote: " neg ", Result: "Aff 2-1"},
	}

	m := Compute(ballots)

	if m.RoundsJudged != 2 {
		t.Errorf("RoundsJudged = %d, want 2", m.RoundsJudged)
	}
	if m.SquirrelRate != 50.0 {
		t.Errorf("SquirrelRate = %v, want 50.0", m.SquirrelRate)
	}
	if m.AffWinRate != 50.0 {
		t.Errorf("AffWinRate = %v, want 50.0", m.AffWinRate)
	}
}
