// Package parser extracts judge records from scraped pages. Parsing rules
// are versioned per observed site layout: the upstream markup changes
// silently, and when it does the fix is a new Layout, not edits to the old
// one (old layouts still parse archived pages during replay).
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabscout/tabscout/pkg/models"
)

// ErrNoLayout means no registered layout recognized the document. This is
// the expected failure mode after an upstream redesign.
var ErrNoLayout = errors.New("no layout matches document")

// Error describes a failed parse of one document. The batch continues past
// it; the identifier ends up in the run's failure list.
type Error struct {
	Identifier string
	Layout     string
	Err        error
}

func (e *Error) Error() string {
	if e.Layout != "" {
		return fmt.Sprintf("parse %s (layout %s): %v", e.Identifier, e.Layout, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Identifier, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Layout is one versioned set of parsing rules for a site revision.
type Layout interface {
	Name() string
	// Match reports whether this layout recognizes the document.
	Match(doc *goquery.Document) bool
	// Parse extracts the judge record. Pure function of its inputs.
	Parse(doc *goquery.Document, identifier, sourceURL string) (*models.Judge, error)
}

// Parser sniffs a document against its registered layouts, newest first,
// and parses with the first match.
type Parser struct {
	layouts []Layout
}

// New returns a Parser with all shipped layouts registered.
func New() *Parser {
	return &Parser{layouts: []Layout{
		&layoutV2{},
		&layoutV1{},
	}}
}

// NewWithLayouts returns a Parser with an explicit layout list, for tests
// and for replaying archives captured under a retired layout.
func NewWithLayouts(layouts ...Layout) *Parser {
	return &Parser{layouts: layouts}
}

// Parse extracts a judge record from a raw page body.
func (p *Parser) Parse(body []byte, identifier, sourceURL string) (*models.Judge, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Identifier: identifier, Err: err}
	}

	for _, layout := range p.layouts {
		if !layout.Match(doc) {
			continue
		}
		slog.Debug("layout matched", "identifier", identifier, "layout", layout.Name())

		judge, err := layout.Parse(doc, identifier, sourceURL)
		if err != nil {
			return nil, &Error{Identifier: identifier, Layout: layout.Name(), Err: err}
		}
		models.SortBallots(judge.Ballots)
		return judge, nil
	}

	return nil, &Error{Identifier: identifier, Err: ErrNoLayout}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	isoDateRe    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// cleanText collapses runs of whitespace the way the site's nested markup
// tends to produce them.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// cleanDate pulls a YYYY-MM-DD date out of a cell that may also carry time
// and timezone noise.
func cleanDate(s string) string {
	return isoDateRe.FindString(s)
}
