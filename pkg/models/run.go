package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// IngestRun is the audit record for one execution of the pipeline over a
// batch of judge identifiers. Created at run start, closed at run end.
type IngestRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Failed     int       `json:"failed"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Failure records a single per-identifier error. One identifier failing
// never aborts the rest of the run, so the summary has to carry every
// failure for operator visibility.
type Failure struct {
	Identifier string `json:"identifier"`
	Stage      string `json:"stage"` // "fetch", "parse" or "store"
	Message    string `json:"message"`
}

// NewRunID creates a deterministic short run ID from a seed string.
// The ID is a SHA-256 hash (first 12 chars) of the seed.
func NewRunID(seed string) string {
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])[:12]
}

// Summary renders the run counts as a single line for logs and CLI output.
func (r IngestRun) Summary() string {
	return fmt.Sprintf("added=%d updated=%d unchanged=%d failed=%d",
		r.Added, r.Updated, r.Unchanged, r.Failed)
}
