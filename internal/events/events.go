// Package events defines the messages passed between pipeline stages.
package events

import (
	"github.com/tabscout/tabscout/pkg/models"
)

// Outcome is the result of fetching and parsing one identifier. Exactly one
// of Judge or Failure is set. Outcomes flow from the fetch workers to the
// single store writer.
//
// Archived records that the raw page made it into the archive. It is set at
// fetch time, independently of parsing: a page whose parse failed is exactly
// the page a replay needs after a parser fix.
type Outcome struct {
	Identifier string
	Judge      *models.Judge
	Failure    *models.Failure
	Archived   bool
}
