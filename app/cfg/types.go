package cfg

import "path/filepath"

type Cfg struct {
	// Pipeline configuration
	DataDir         string
	SourcesFile     string
	DefaultLanguage string
	UserAgent       string
	FetchTimeout    int
	FetchDelay      float64
	IgnoreRobots    bool
	WithHTML        bool

	// Application configuration
	Port            string
	RefreshInterval int
	WorkerCount     int
	APIAccessKey    string
	TopSources      int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// RawDir is where fetched HTML pages and their sidecar metadata land.
func (c *Cfg) RawDir() string {
	return filepath.Join(c.DataDir, "raw", "seed")
}

// InterimDir holds the per-page candidate block JSONL files.
func (c *Cfg) InterimDir() string {
	return filepath.Join(c.DataDir, "interim", "seed")
}

// ProcessedDir holds the article CSV tables served by the query service.
func (c *Cfg) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed", "latest")
}
