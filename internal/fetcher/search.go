package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SearchJudge resolves a judge name to an identifier via the site's paradigm
// search form. The form takes first and last name separately; a single-word
// query is treated as a last name.
//
// Two response shapes exist: a unique hit redirects straight to the judge
// page, an ambiguous one returns a candidate table. Candidates are matched
// on the exact full name (case-insensitive); anything else is an error, a
// near-miss must never ingest the wrong judge.
func (f *Fetcher) SearchJudge(ctx context.Context, name string) (string, error) {
	first, last := splitName(name)
	if last == "" {
		return "", fmt.Errorf("empty judge name")
	}

	form := url.Values{}
	form.Set("search_first", first)
	form.Set("search_last", last)

	searchURL := f.config.BaseURL + f.config.SearchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("judge search: status %d", resp.StatusCode)
	}

	// A unique match redirects to the judge page itself.
	if m := judgeIDPattern.FindStringSubmatch(resp.Request.URL.String()); m != nil {
		slog.Debug("search resolved via redirect", "name", name, "id", m[1])
		return m[1], nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing search results: %w", err)
	}

	want := strings.ToLower(strings.Join(strings.Fields(name), " "))

	var id string
	doc.Find(`a[href*="judge_person_id="]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := judgeIDPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}

		// Result rows carry first and last name in the leading cells.
		cells := a.Closest("tr").Find("td")
		if cells.Length() < 2 {
			return true
		}
		candidate := strings.TrimSpace(cells.Eq(0).Text()) + " " + strings.TrimSpace(cells.Eq(1).Text())
		candidate = strings.ToLower(strings.Join(strings.Fields(candidate), " "))

		if candidate == want {
			id = m[1]
			return false
		}
		return true
	})

	if id == "" {
		return "", fmt.Errorf("no exact match for judge %q", name)
	}

	slog.Debug("search resolved via candidate row", "name", name, "id", id)
	return id, nil
}

// splitName divides a full name into the search form's first/last fields.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
