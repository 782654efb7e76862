package sources

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads the source list once per run. Entries are never mutated
// after loading.
type Loader struct {
	path            string
	defaultLanguage string
}

func NewLoader(path, defaultLanguage string) *Loader {
	return &Loader{path: path, defaultLanguage: defaultLanguage}
}

// Load reads and validates the configured source list. A missing or
// unreadable file is an error: the pipeline must not start without sources.
func (l *Loader) Load() ([]Source, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	out := make([]Source, 0, len(file.Sources))
	for i, src := range file.Sources {
		src.Name = strings.TrimSpace(src.Name)
		src.URL = strings.TrimSpace(src.URL)
		src.RSS = strings.TrimSpace(src.RSS)

		if src.URL == "" && src.RSS == "" {
			return nil, fmt.Errorf("invalid source at index %d: url or rss is required", i)
		}

		src.Name = cmp.Or(src.Name, src.URL, src.RSS)
		src.Language = cmp.Or(strings.TrimSpace(src.Language), l.defaultLanguage)

		out = append(out, src)
	}

	return out, nil
}
