package sources

// Source is one configured origin: a news outlet identified by name and
// homepage URL, with an optional explicit feed URL.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	RSS      string `yaml:"rss,omitempty"`
	Language string `yaml:"language,omitempty"`
	Group    string `yaml:"group,omitempty"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}
