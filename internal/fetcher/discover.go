package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/gocolly/colly/v2"
)

var judgeIDPattern = regexp.MustCompile(`judge_person_id=(\d+)`)

// DiscoverConfig holds judge-list discovery configuration.
type DiscoverConfig struct {
	UserAgent string
	Delay     time.Duration
	Timeout   time.Duration
}

// Discover crawls a tournament judge-list page and returns the judge
// identifiers it links to, deduplicated and sorted. The context aborts
// pending requests between pages.
func Discover(ctx context.Context, config DiscoverConfig, listURL string) ([]string, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "tabscout/1.0"
	}

	seen := make(map[string]bool)
	var cancelled bool

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(config.UserAgent),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       config.Delay,
		Parallelism: 2,
	})
	c.SetRequestTimeout(config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("discovery cancelled", "url", r.URL.String())
			r.Abort()
			cancelled = true
		}
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		m := judgeIDPattern.FindStringSubmatch(e.Attr("href"))
		if m == nil {
			return
		}
		seen[m[1]] = true
	})

	slog.Debug("discovering judges", "url", listURL)
	if err := c.Visit(listURL); err != nil {
		return nil, fmt.Errorf("visiting judge list %s: %w", listURL, err)
	}
	c.Wait()

	if cancelled {
		return nil, ctx.Err()
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	slog.Info("discovered judges", "url", listURL, "count", len(ids))
	return ids, nil
}
