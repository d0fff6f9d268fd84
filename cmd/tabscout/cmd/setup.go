package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tabscout/tabscout/internal/archive"
	"github.com/tabscout/tabscout/internal/config"
	"github.com/tabscout/tabscout/internal/fetcher"
	"github.com/tabscout/tabscout/internal/pipeline"
	"github.com/tabscout/tabscout/internal/session"
	"github.com/tabscout/tabscout/internal/store"
)

// newStore builds the configured store backend. For Elasticsearch the index
// is created on first use.
func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "elasticsearch":
		es, err := store.NewElastic(store.ElasticConfig{
			Addresses: cfg.Store.Elasticsearch.Addresses,
			Index:     cfg.Store.Elasticsearch.Index,
			Username:  cfg.Store.Elasticsearch.Username,
			Password:  cfg.Store.Elasticsearch.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ES store: %w", err)
		}
		if err := es.CreateIndex(ctx); err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
		return es, nil
	case "file":
		return store.NewFile(cfg.Store.File.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newSession logs in when credentials are configured and returns the HTTP
// client to fetch with, plus a teardown that persists the session cookies.
// Without credentials the client is nil and the fetcher uses a plain one.
func newSession(ctx context.Context, cfg config.Config) (*http.Client, func(), error) {
	if !cfg.Session.Enabled {
		return nil, func() {}, nil
	}

	s, err := session.New(session.Config{
		BaseURL:      cfg.Site.BaseURL,
		LoginPath:    cfg.Site.LoginPath,
		LoggedInPath: cfg.Site.LoggedInPath,
		UserAgent:    cfg.Site.UserAgent,
		Username:     cfg.Session.Username,
		Password:     cfg.Session.Password,
		CookiesFile:  cfg.Session.CookiesFile,
		Timeout:      cfg.Fetcher.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.Login(ctx); err != nil {
		return nil, nil, fmt.Errorf("login failed: %w", err)
	}

	teardown := func() {
		if err := s.Close(); err != nil {
			slog.Warn("failed to save session cookies", "error", err)
		}
	}
	return s.Client(), teardown, nil
}

// newFetcher wires site and retry configuration into a Fetcher.
func newFetcher(cfg config.Config, client *http.Client) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		BaseURL:     cfg.Site.BaseURL,
		JudgePath:   cfg.Site.JudgePath,
		SearchPath:  cfg.Site.SearchPath,
		UserAgent:   cfg.Site.UserAgent,
		Timeout:     cfg.Fetcher.Timeout,
		MaxAttempts: cfg.Fetcher.MaxAttempts,
	}, client)
}

// newArchive returns a ready archive client, or nil when archiving is off.
func newArchive(ctx context.Context, cfg config.Config) (pipeline.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	client, err := archive.New(archive.Config{
		Endpoint:        cfg.Archive.Endpoint,
		Bucket:          cfg.Archive.Bucket,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		UseSSL:          cfg.Archive.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}
	return client, nil
}

// siteHost extracts the hostname used for archive prefixes and run IDs.
func siteHost(cfg config.Config) string {
	u, err := url.Parse(cfg.Site.BaseURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
