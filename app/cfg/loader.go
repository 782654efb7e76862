package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pipeline configuration
	DataDir         string  `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Root directory for raw, interim and processed artifacts"`
	SourcesFile     string  `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file with the source list"`
	DefaultLanguage string  `long:"default-language" env:"DEFAULT_LANGUAGE" default:"English" description:"Language assigned to sources without one"`
	UserAgent       string  `long:"user-agent" env:"USER_AGENT" default:"NewsLens/1.0 (+https://github.com/newslens)" description:"User agent string for HTTP requests"`
	FetchTimeout    int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"12" description:"Per-request timeout in seconds"`
	FetchDelay      float64 `long:"fetch-delay" env:"FETCH_DELAY" default:"2.0" description:"Base delay in seconds between page fetches"`
	IgnoreRobots    bool    `long:"ignore-robots" env:"IGNORE_ROBOTS" description:"Skip robots.txt checks (not recommended)"`
	WithHTML        bool    `long:"with-html" env:"WITH_HTML" description:"Enable the HTML page pipeline in addition to RSS"`

	// Application configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	RefreshInterval int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"0" description:"Pipeline refresh interval in seconds (0 runs the pipeline once)"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers for pipeline tasks"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`
	TopSources      int    `long:"top-sources" env:"TOP_SOURCES" default:"15" description:"Default number of sources in the top-sources metric"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// .env is optional; environment variables win over file values
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:         raw.DataDir,
		SourcesFile:     raw.SourcesFile,
		DefaultLanguage: raw.DefaultLanguage,
		UserAgent:       raw.UserAgent,
		FetchTimeout:    raw.FetchTimeout,
		FetchDelay:      raw.FetchDelay,
		IgnoreRobots:    raw.IgnoreRobots,
		WithHTML:        raw.WithHTML,
		Port:            raw.Port,
		RefreshInterval: raw.RefreshInterval,
		WorkerCount:     raw.WorkerCount,
		APIAccessKey:    raw.APIAccessKey,
		TopSources:      raw.TopSources,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
