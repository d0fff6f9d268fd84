package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds session configuration for the remote site.
type Config struct {
	BaseURL      string
	LoginPath    string
	LoggedInPath string // URL fragment that only appears for authenticated users
	UserAgent    string
	Username     string
	Password     string
	CookiesFile  string
	Timeout      time.Duration
}

// Session owns the HTTP client for one ingest run. Cookies are loaded at
// setup and saved at teardown so a valid login survives across runs without
// re-authenticating every time. Nothing here is shared between runs.
type Session struct {
	config  Config
	client  *http.Client
	baseURL *url.URL
}

// New creates a Session with a fresh cookie jar, seeded from the cookies
// file when one exists.
func New(config Config) (*Session, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	s := &Session{
		config: config,
		client: &http.Client{
			Jar:     jar,
			Timeout: config.Timeout,
		},
		baseURL: baseURL,
	}

	if err := s.loadCookies(); err != nil {
		// A corrupt cookie file just means we log in again.
		slog.Debug("could not load cookies", "file", config.CookiesFile, "error", err)
	}

	return s, nil
}

// Client returns the HTTP client carrying the session cookies.
func (s *Session) Client() *http.Client {
	return s.client
}

// Login ensures the session is authenticated. If the saved cookies still
// work the form POST is skipped entirely.
func (s *Session) Login(ctx context.Context) error {
	if s.loggedIn(ctx) {
		slog.Debug("already logged in via saved cookies")
		return nil
	}

	if s.config.Username == "" || s.config.Password == "" {
		return fmt.Errorf("session credentials not configured")
	}

	form := url.Values{}
	form.Set("login_email", s.config.Username)
	form.Set("login_password", s.config.Password)

	loginURL := s.baseURL.JoinPath(s.config.LoginPath).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if !s.loggedIn(ctx) {
		return fmt.Errorf("login failed for %s: check credentials", s.config.Username)
	}

	slog.Info("logged in", "user", s.config.Username)
	return nil
}

// loggedIn probes the site: a logged-in session is redirected to the account
// area, an anonymous one lands on the login page.
func (s *Session) loggedIn(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if strings.Contains(finalURL, "/user/login") {
		return false
	}
	if s.config.LoggedInPath != "" && strings.Contains(finalURL, s.config.LoggedInPath) {
		return true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "logout") || strings.Contains(lower, "my account")
}

// Close persists the cookie jar to disk.
func (s *Session) Close() error {
	return s.saveCookies()
}

// storedCookie is the on-disk cookie representation.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func (s *Session) loadCookies() error {
	if s.config.CookiesFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.config.CookiesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parsing cookies file: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	now := time.Now()
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}

	s.client.Jar.SetCookies(s.baseURL, cookies)
	slog.Debug("cookies loaded", "count", len(cookies))
	return nil
}

func (s *Session) saveCookies() error {
	if s.config.CookiesFile == "" {
		return nil
	}

	cookies := s.client.Jar.Cookies(s.baseURL)
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.config.CookiesFile), 0o755); err != nil {
		return fmt.Errorf("creating cookies directory: %w", err)
	}
	if err := os.WriteFile(s.config.CookiesFile, data, 0o600); err != nil {
		return fmt.Errorf("writing cookies file: %w", err)
	}

	slog.Debug("cookies saved", "count", len(stored))
	return nil
}
