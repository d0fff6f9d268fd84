package parser

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabscout/tabscout/pkg/models"
)

// layoutV2 handles the current site markup: the judging record lives in
// table#record with named header columns, the paradigm in div.paradigm.
// Columns are mapped by header text, so reordering upstream doesn't break us.
type layoutV2 struct{}

func (l *layoutV2) Name() string { return "tabroom-v2" }

func (l *layoutV2) Match(doc *goquery.Document) bool {
	return doc.Find("table#record").Length() > 0
}

func (l *layoutV2) Parse(doc *goquery.Document, identifier, sourceURL string) (*models.Judge, error) {
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
		School:    cleanText(doc.Find("h5.subtitle").First().Text()),
		SourceURL: sourceURL,
		FirstSeen: time.Now().UTC(),
	}

	if paradigmHTML, err := doc.Find("div.paradigm").First().Html(); err == nil && paradigmHTML != "" {
		md, err := ConvertParadigm(paradigmHTML)
		if err == nil {
			judge.Paradigm = md
		}
	}

	table := doc.Find("table#record").First()

	// Map column indexes by header text.
	cols := make(map[string]int)
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		cols[cleanText(th.Text())] = i
	})
	if len(cols) == 0 {
		return nil, fmt.Errorf("record table has no header row")
	}

	cell := func(row []string, header string) string {
		i, ok := cols[header]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, cleanText(td.Text()))
		})
		if len(row) == 0 {
			return
		}

		b := models.Ballot{
			Tournament: cell(row, "Tournament"),
			Level:      cell(row, "Lv"),
			Date:       cleanDate(cell(row, "Date")),
			Event:      cell(row, "Ev"),
			Round:      cell(row, "Rd"),
			Aff:        cell(row, "Aff"),
			Neg:        cell(row, "Neg"),
			Vote:       cell(row, "Vote"),
			Result:     cell(row, "Result"),
		}
		// Rows without a tournament are filler (ads, section separators).
		if b.Tournament == "" {
			return
		}
		judge.Ballots = append(judge.Ballots, b)
	})

	return judge, nil
}

func docHTML(doc *goquery.Document) string {
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	return html
}
