package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	AniList  AniListConfig  `mapstructure:"anilist"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug or release
}

type DatabaseConfig struct {
	MediaPath string `mapstructure:"media_path"` // rebuilt wholesale by the refresh job
	SitePath  string `mapstructure:"site_path"`  // history and favorites, never rebuilt
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Token        string        `mapstructure:"token"`
	BaseURL      string        `mapstructure:"base_url"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Proxy        string        `mapstructure:"proxy"`
}

type AniListConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Proxy    string        `mapstructure:"proxy"`
	// Pace is the fixed gap between consecutive per-anime calls.
	Pace time.Duration `mapstructure:"pace"`
}

type RefreshConfig struct {
	FeaturedPages int    `mapstructure:"featured_pages"`
	FeaturedLimit int    `mapstructure:"featured_limit"`
	PopularPages  int    `mapstructure:"popular_pages"`
	AnimePages    int    `mapstructure:"anime_pages"`
	AnimePerPage  int    `mapstructure:"anime_per_page"`
	Schedule      string `mapstructure:"schedule"` // cron expression, empty disables

	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type SnapshotConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
	Keep      int    `mapstructure:"keep"` // snapshots retained, 0 keeps all
}

var AppConfig *Config

func LoadConfig(configPath string) error {
	v := viper.New()

	v.SetDefault("server.port", 8306)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.media_path", "data/media.db")
	v.SetDefault("database.site_path", "data/site.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.token", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w780")
	v.SetDefault("tmdb.timeout", 10*time.Second)
	v.SetDefault("tmdb.proxy", "")

	v.SetDefault("anilist.endpoint", "https://graphql.anilist.co")
	v.SetDefault("anilist.token", "")
	v.SetDefault("anilist.timeout", 10*time.Second)
	v.SetDefault("anilist.proxy", "")
	v.SetDefault("anilist.pace", 1800*time.Millisecond)

	v.SetDefault("refresh.featured_pages", 3)
	v.SetDefault("refresh.featured_limit", 100)
	v.SetDefault("refresh.popular_pages", 1)
	v.SetDefault("refresh.anime_pages", 1)
	v.SetDefault("refresh.anime_per_page", 50)
	v.SetDefault("refresh.schedule", "")
	v.SetDefault("refresh.retries", 3)
	v.SetDefault("refresh.retry_delay", time.Second)

	v.SetDefault("snapshot.enabled", false)
	v.SetDefault("snapshot.endpoint", "")
	v.SetDefault("snapshot.region", "auto")
	v.SetDefault("snapshot.bucket", "")
	v.SetDefault("snapshot.access_key", "")
	v.SetDefault("snapshot.secret_key", "")
	v.SetDefault("snapshot.prefix", "media_snapshot_")
	v.SetDefault("snapshot.keep", 5)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	// STAMPER_TMDB_API_KEY=... overrides tmdb.api_key
	v.SetEnvPrefix("STAMPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if c.Database.MediaPath == "" {
		return fmt.Errorf("database.media_path must not be empty")
	}
	if c.Database.MediaPath == c.Database.SitePath {
		return fmt.Errorf("database.media_path and database.site_path must differ")
	}
	if c.Refresh.FeaturedPages < 0 || c.Refresh.PopularPages < 0 || c.Refresh.AnimePages < 0 {
		return fmt.Errorf("refresh page counts must not be negative")
	}
	if c.AniList.Pace < 0 {
		return fmt.Errorf("anilist.pace must not be negative")
	}
	if c.Snapshot.Enabled && c.Snapshot.Bucket == "" {
		return fmt.Errorf("snapshot.bucket is required when snapshot.enabled is set")
	}
	return nil
}
