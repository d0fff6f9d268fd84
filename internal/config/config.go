package config

import "time"

// Config holds all application configuration.
type Config struct {
	Site    Site     `mapstructure:"site"`
	Session Session  `mapstructure:"session"`
	Fetcher Fetcher  `mapstructure:"fetcher"`
	Store   Store    `mapstructure:"store"`
	Archive Archive  `mapstructure:"archive"`
	Metrics Metrics  `mapstructure:"metrics"`
	Sources []Source `mapstructure:"sources"`
}

// Site holds the remote tournament site configuration. Page paths are config
// rather than constants: the upstream URL scheme changes without notice.
type Site struct {
	BaseURL      string `mapstructure:"base_url"`
	JudgePath    string `mapstructure:"judge_path"`     // e.g. "/index/paradigm.mhtml?judge_person_id="
	SearchPath   string `mapstructure:"search_path"`    // judge search form, e.g. "/index/paradigm.mhtml"
	LoginPath    string `mapstructure:"login_path"`     // e.g. "/user/login/login"
	LoggedInPath string `mapstructure:"logged_in_path"` // path fragment that marks a logged-in session
	UserAgent    string `mapstructure:"user_agent"`
}

// Session holds login configuration for the remote site. Full judging records
// are only visible to authenticated accounts.
type Session struct {
	Enabled     bool   `mapstructure:"enabled"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	CookiesFile string `mapstructure:"cookies_file"`
}

// Fetcher holds HTTP fetch configuration.
type Fetcher struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
	Workers     int           `mapstructure:"workers"`
}

// Store selects and configures the record store backend.
type Store struct {
	Backend       string        `mapstructure:"backend"` // "elasticsearch" or "file"
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	File          File          `mapstructure:"file"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// File holds the file-backed store configuration.
type File struct {
	Path string `mapstructure:"path"`
}

// Archive holds S3/MinIO raw page archive configuration.
type Archive struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Metrics holds derived-metric configuration.
type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// Source defines a configured scrape target: either explicit judge IDs or a
// tournament judge-list URL to discover them from.
type Source struct {
	Name       string   `mapstructure:"name"`
	Judges     []string `mapstructure:"judges"`
	Tournament string   `mapstructure:"tournament"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Site: Site{
			BaseURL:      "https://www.tabroom.com",
			JudgePath:    "/index/paradigm.mhtml?judge_person_id=",
			SearchPath:   "/index/paradigm.mhtml",
			LoginPath:    "/user/login/login",
			LoggedInPath: "/user/chapter",
			UserAgent:    "tabscout/1.0",
		},
		Session: Session{
			Enabled:     false, // public pages only unless credentials are configured
			CookiesFile: "./data/cookies.json",
		},
		Fetcher: Fetcher{
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
			Delay:       1 * time.Second,
			Workers:     4,
		},
		Store: Store{
			Backend: "file",
			Elasticsearch: Elasticsearch{
				Addresses: []string{"http://localhost:9200"},
				Index:     "tabscout-judges",
			},
			File: File{
				Path: "./data/judges.json",
			},
		},
		Archive: Archive{
			Enabled:         false,
			Endpoint:        "localhost:9000",
			Bucket:          "tabscout",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
