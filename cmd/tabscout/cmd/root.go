package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tabscout/tabscout/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "tabscout",
	Short: "tabscout: a judge record scraper",
	Long: `tabscout fetches judge paradigm pages from a tournament site, parses
the judging record out of them, and merges the results into a persistent
store. Re-running over the same pages is a no-op; records only ever grow.

Commands:
  ingest   Fetch and store judge records
  replay   Re-parse archived pages from a previous run
  metrics  Show derived metrics for stored judges
  export   Dump stored records as NDJSON or CSV
  remove   Delete a judge record from the store`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/tabscout")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// TABSCOUT_SESSION_USERNAME -> session.username
	viper.SetEnvPrefix("TABSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("site.base_url", "TABSCOUT_SITE_BASE_URL")
	viper.BindEnv("session.enabled", "TABSCOUT_SESSION_ENABLED")
	viper.BindEnv("session.username", "TABSCOUT_SESSION_USERNAME")
	viper.BindEnv("session.password", "TABSCOUT_SESSION_PASSWORD")
	viper.BindEnv("store.backend", "TABSCOUT_STORE_BACKEND")
	viper.BindEnv("store.elasticsearch.addresses", "TABSCOUT_STORE_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("store.elasticsearch.index", "TABSCOUT_STORE_ELASTICSEARCH_INDEX")
	viper.BindEnv("store.elasticsearch.username", "TABSCOUT_STORE_ELASTICSEARCH_USERNAME")
	viper.BindEnv("store.elasticsearch.password", "TABSCOUT_STORE_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("store.file.path", "TABSCOUT_STORE_FILE_PATH")
	viper.BindEnv("archive.enabled", "TABSCOUT_ARCHIVE_ENABLED")
	viper.BindEnv("archive.endpoint", "TABSCOUT_ARCHIVE_ENDPOINT")
	viper.BindEnv("archive.bucket", "TABSCOUT_ARCHIVE_BUCKET")
	viper.BindEnv("archive.access_key_id", "TABSCOUT_ARCHIVE_ACCESS_KEY_ID")
	viper.BindEnv("archive.secret_access_key", "TABSCOUT_ARCHIVE_SECRET_ACCESS_KEY")
	viper.BindEnv("fetcher.workers", "TABSCOUT_FETCHER_WORKERS")
	viper.BindEnv("fetcher.timeout", "TABSCOUT_FETCHER_TIMEOUT")
	viper.BindEnv("metrics.enabled", "TABSCOUT_METRICS_ENABLED")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: addresses as comma-separated string from env
	if addrs := os.Getenv("TABSCOUT_STORE_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Store.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}
