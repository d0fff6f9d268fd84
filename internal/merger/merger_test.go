package merger

import (
	"testing"
	"time"

	"github.com/tabscout/tabscout/pkg/models"
)

var now = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestDecide_NewRecord(t *testing.T) {
	incoming := models.Judge{ID: "J1", Name: "Alice"}

	d := Decide(nil, incoming, now)

	if d.Action != ActionAdd {
		t.Errorf("Action = %q, want %q", d.Action, ActionAdd)
	}
	if d.Judge.FirstSeen != now || d.Judge.UpdatedAt != now {
		t.Error("add should stamp FirstSeen and UpdatedAt")
	}
}

func TestDecide_UpdatedName(t *testing.T) {
	existing := models.Judge{ID: "J1", Name: "Alice", FirstSeen: now.Add(-24 * time.Hour)}
	incoming := models.Judge{ID: "J1", Name: "Alice Smith"}

	d := Decide(&existing, incoming, now)

	if d.Action != ActionUpdate {
		t.Fatalf("Action = %q, want %q", d.Action, ActionUpdate)
	}
	if d.Judge.Name != "Alice Smith" {
		t.Errorf("Name = %q, want latest value", d.Judge.Name)
	}
	if d.Judge.FirstSeen != existing.FirstSeen {
		t.Error("update must not touch FirstSeen")
	}
	if len(d.Changes) != 1 || d.Changes[0].Field != "name" {
		t.Errorf("Changes = %+v, want one name change", d.Changes)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	incoming := models.Judge{
		ID:   "J1",
		Name: "Alice",
		Ballots: []models.Ballot{
			{Tournament: "Glenbrooks", Date: "2025-11-22", Round: "3", Vote: "Aff"},
		},
	}

	first := Decide(nil, incoming, now)
	if first.Action != ActionAdd {
		t.Fatalf("first Action = %q, want added", first.Action)
	}

	second := Decide(&first.Judge, incoming, now.Add(time.Hour))
	if second.Action != ActionUnchanged {
		t.Errorf("second Action = %q, want unchanged (changes: %+v)", second.Action, second.Changes)
	}
	if second.Judge.UpdatedAt != first.Judge.UpdatedAt {
		t.Error("unchanged decision must not bump UpdatedAt")
	}
}

func TestDecide_EmptyIncomingFieldDoesNotErase(t *testing.T) {
	existing := models.Judge{ID: "J1", Name: "Alice", School: "Lincoln", Paradigm: "flow judge"}
	incoming := models.Judge{ID: "J1", Name: "Alice"} // partial parse: school and paradigm missing

	d := Decide(&existing, incoming, now)

	if d.Action != ActionUnchanged {
		t.Errorf("Action = %q, want unchanged", d.Action)
	}
	if d.Judge.School != "Lincoln" || d.Judge.Paradigm != "flow judge" {
		t.Errorf("missing incoming fields must not erase stored values, got %+v", d.Judge)
	}
}

func TestDecide_BallotsUnionNeverDeletes(t *testing.T) {
	existing := models.Judge{
		ID:   "J1",
		Name: "Alice",
		Ballots: []models.Ballot{
			{Tournament: "Old Classic", Date: "2024-01-10", Round: "1", Vote: "Neg"},
		},
	}
	incoming := models.Judge{
		ID:   "J1",
		Name: "Alice",
		Ballots: []models.Ballot{
			{Tournament: "Glenbrooks", Date: "2025-11-22", Round: "3", Vote: "Aff"},
		},
	}

	d := Decide(&existing, incoming, now)

	if d.Action != ActionUpdate {
		t.Fatalf("Action = %q, want updated", d.Action)
	}
	if len(d.Judge.Ballots) != 2 {
		t.Fatalf("got %d ballots, want union of 2", len(d.Judge.Ballots))
	}
	// The old ballot, absent from this fetch, must survive.
	found := false
	for _, b := range d.Judge.Ballots {
		if b.Tournament == "Old Classic" {
			found = true
		}
	}
	if !found {
		t.Error("ballot absent from fetch was deleted")
	}
}

func TestDecide_BallotCorrection(t *testing.T) {
	existing := models.Judge{
		ID:   "J1",
		Name: "Alice",
		Ballots: []models.Ballot{
			{Tournament: "Glenbrooks", Date: "2025-11-22", Round: "3", Vote: "Aff"},
		},
	}
	// Tab staff corrected the ballot upstream.
	incoming := models.Judge{
		ID:   "J1",
		Name: "Alice",
		Ballots: []models.Ballot{
			{Tournament: "Glenbrooks", Date: "2025-11-22", Round: "3", Vote: "Neg", Result: "Neg 3-0"},
		},
	}

	d := Decide(&existing, incoming, now)

	if d.Action != ActionUpdate {
		t.Fatalf("Action = %q, want updated", d.Action)
	}
	if len(d.Judge.Ballots) != 1 {
		t.Fatalf("got %d ballots, want 1 (replaced, not duplicated)", len(d.Judge.Ballots))
	}
	if d.Judge.Ballots[0].Vote != "Neg" {
		t.Errorf("Vote = %q, want corrected value", d.Judge.Ballots[0].Vote)
	}
}
