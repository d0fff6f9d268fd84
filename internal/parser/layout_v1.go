package parser

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabscout/tabscout/pkg/models"
)

// layoutV1 handles the legacy markup: an unlabelled table.judgelist with
// fixed column positions (Tournament, Lv, Date, Ev, Rd, Aff, Neg, Vote,
// Result) and the paradigm in a blockquote. Kept for replaying archived
// pages captured before the redesign.
type layoutV1 struct{}

const v1Columns = 9

func (l *layoutV1) Name() string { return "tabroom-v1" }

func (l *layoutV1) Match(doc *goquery.Document) bool {
	return doc.Find("table.judgelist").Length() > 0
}

func (l *layoutV1) Parse(doc *goquery.Document, identifier, sourceURL string) (*models.Judge, error) {
	name := cleanText(doc.Find("h3").First().Text())
	if name == "" {
		name = ExtractName(docHTML(doc))
	}
	if name == "" {
		return nil, fmt.Errorf("judge name not found")
	}

	judge := &models.Judge{
		ID:        identifier,
		Name:      name,
		SourceURL: sourceURL,
		FirstSeen: time.Now().UTC(),
	}

	if paradigmHTML, err := doc.Find("blockquote").First().Html(); err == nil && paradigmHTML != "" {
		md, err := ConvertParadigm(paradigmHTML)
		if err == nil {
			judge.Paradigm = md
		}
	}

	doc.Find("table.judgelist tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, cleanText(td.Text()))
		})
		if len(row) < v1Columns {
			return
		}

		b := models.Ballot{
			Tournament: row[0],
			Level:      row[1],
			Date:       cleanDate(row[2]),
			Event:      row[3],
			Round:      row[4],
			Aff:        row[5],
			Neg:        row[6],
			Vote:       row[7],
			Result:     row[8],
		}
		if b.Tournament == "" {
			return
		}
		judge.Ballots = append(judge.Ballots, b)
	})

	return judge, nil
}
