// Package merger reconciles freshly parsed judge records against the
// current store state. It only ever adds or updates: a judge missing from a
// fetch may just mean the fetch failed, so removal is a separate, manual
// operation.
package merger

import (
	"time"

	"github.com/tabscout/tabscout/pkg/models"
)

// Action classifies what an upsert decision does to the store.
type Action string

const (
	ActionAdd       Action = "added"
	ActionUpdate    Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// Change records one field-level difference between the stored and the
// incoming record, for the run's audit trail.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Decision is the upsert plan for a single record. For ActionUnchanged the
// store write is skipped entirely; that is what makes re-running the same
// batch idempotent.
type Decision struct {
	Action  Action
	Judge   models.Judge
	Changes []Change
}

// Decide merges an incoming record into the existing one (nil for a judge
// not yet in the store) and classifies the result.
//
// Scalar fields are overwritten only by non-empty incoming values: a field
// the parser could not find on this fetch is unknown, not removed. Ballots
// are unioned by their (tournament, date, round) key; ballots absent from
// the fetch are kept.
func Decide(existing *models.Judge, incoming models.Judge, now time.Time) Decision {
	if existing == nil {
		incoming.FirstSeen = now
		incoming.UpdatedAt = now
		models.SortBallots(incoming.Ballots)
		return Decision{
			Action:  ActionAdd,
			Judge:   incoming,
			Changes: []Change{{Field: "record", New: incoming.Name}},
		}
	}

	merged := *existing
	var changes []Change

	scalar := func(field string, dst *string, src string) {
		if src == "" || src == *dst {
			return
		}
		changes = append(changes, Change{Field: field, Old: *dst, New: src})
		*dst = src
	}

	scalar("name", &merged.Name, incoming.Name)
	scalar("school", &merged.School, incoming.School)
	scalar("paradigm", &merged.Paradigm, incoming.Paradigm)
	scalar("source_url", &merged.SourceURL, incoming.SourceURL)

	merged.Ballots, changes = mergeBallots(merged.Ballots, incoming.Ballots, changes)

	if len(changes) == 0 {
		return Decision{Action: ActionUnchanged, Judge: merged}
	}

	merged.UpdatedAt = now
	return Decision{Action: ActionUpdate, Judge: merged, Changes: changes}
}

// mergeBallots unions incoming ballots into the existing set by key. An
// incoming ballot with a known key replaces the stored one only when a field
// actually differs.
func mergeBallots(existing, incoming []models.Ballot, changes []Change) ([]models.Ballot, []Change) {
	index := make(map[string]int, len(existing))
	for i, b := range existing {
		index[b.Key()] = i
	}

	merged := make([]models.Ballot, len(existing))
	copy(merged, existing)

	for _, b := range incoming {
		i, ok := index[b.Key()]
		if !ok {
			changes = append(changes, Change{Field: "ballot", New: b.Key()})
			index[b.Key()] = len(merged)
			merged = append(merged, b)
			continue
		}
		if !merged[i].Equal(b) {
			changes = append(changes, Change{Field: "ballot", Old: merged[i].Key(), New: b.Key()})
			merged[i] = b
		}
	}

	models.SortBallots(merged)
	return merged, changes
}
