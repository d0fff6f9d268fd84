package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds fetcher configuration.
type Config struct {
	BaseURL     string
	JudgePath   string // path prefix the judge ID is appended to
	SearchPath  string // paradigm search form path
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
}

// Result is one successfully fetched page. It lives for the duration of a
// single parse and is never persisted (the raw archive keeps its own copy).
type Result struct {
	Identifier string
	URL        string
	Body       []byte
	Status     int
	FetchedAt  time.Time
}

// Error describes a failed fetch. Permanent errors (4xx) were not retried;
// transient ones exhausted the retry budget.
type Error struct {
	Identifier string
	URL        string
	Status     int
	Permanent  bool
	Err        error
}

func (e *Error) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s failure, status %d", e.Identifier, kind, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s failure: %v", e.Identifier, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves judge pages with bounded retry. It does network I/O
// only; persistence is someone else's job.
type Fetcher struct {
	config Config
	client *http.Client
}

// New creates a Fetcher. Pass the session's client to fetch authenticated
// pages; a nil client gets a plain one with the configured timeout.
func New(config Config, client *http.Client) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.UserAgent == "" {
		config.UserAgent = "tabscout/1.0"
	}
	if config.SearchPath == "" {
		config.SearchPath = "/index/paradigm.mhtml"
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &Fetcher{config: config, client: client}
}

// JudgeURL builds the page URL for a judge identifier.
func (f *Fetcher) JudgeURL(id string) string {
	return f.config.BaseURL + f.config.JudgePath + id
}

// Fetch retrieves the page for one judge identifier. Timeouts, 5xx and 429
// responses are retried with exponential backoff up to MaxAttempts; other
// 4xx responses fail immediately as permanent.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (*Result, error) {
	pageURL := f.JudgeURL(identifier)

	var result *Result
	attempt := 0

	operation := func() error {
		attempt++
		slog.Debug("fetching", "identifier", identifier, "url", pageURL, "attempt", attempt)

		r, err := f.fetchOnce(ctx, identifier, pageURL)
		if err != nil {
			var fe *Error
			if errors.As(err, &fe) && fe.Permanent {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.config.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		slog.Debug("fetch failed", "identifier", identifier, "attempts", attempt, "error", err)
		return nil, err
	}

	slog.Debug("fetched", "identifier", identifier, "bytes", len(result.Body), "attempts", attempt)
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, identifier, pageURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{Identifier: identifier, URL: pageURL, Permanent: true, Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Network errors and timeouts are worth retrying.
		return nil, &Error{Identifier: identifier, URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to read the body
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Identifier: identifier, URL: pageURL, Status: resp.StatusCode}
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Identifier: identifier, URL: pageURL, Status: resp.StatusCode, Permanent: true}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Identifier: identifier, URL: pageURL, Err: err}
	}

	return &Result{
		Identifier: identifier,
		URL:        pageURL,
		Body:       body,
		Status:     resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
