package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceSection is one listing endpoint to scan.
type SourceSection struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // "html" (default) or "rss"
}

// Sources describes the site being scanned and the cleaning pattern lists.
type Sources struct {
	BaseURL        string          `yaml:"baseUrl"`
	ArticlePath    string          `yaml:"articlePath"`
	Sections       []SourceSection `yaml:"sections"`
	ContentClasses []string        `yaml:"contentClasses"`

	SourceLabels          []string `yaml:"sourceLabels"`
	BoilerplatePatterns   []string `yaml:"boilerplatePatterns"`
	CrossReferencePhrases []string `yaml:"crossReferencePhrases"`
}

// LoadSources reads the sources YAML file. A missing file falls back to
// the built-in passion.ru defaults so the bot runs out of the box.
func LoadSources(path string) (*Sources, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return defaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var src Sources
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&src); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	if src.BaseURL == "" || len(src.Sections) == 0 {
		return nil, fmt.Errorf("sources config needs baseUrl and at least one section")
	}
	if src.ArticlePath == "" {
		src.ArticlePath = "/news/"
	}
	return &src, nil
}

func defaultSources() *Sources {
	return &Sources{
		BaseURL:     "https://www.passion.ru",
		ArticlePath: "/news/",
		Sections: []SourceSection{
			{Name: "news", URL: "https://www.passion.ru/news/"},
			{Name: "showbiz", URL: "https://www.passion.ru/news/nash-shoubiz/"},
			{Name: "exclusives", URL: "https://www.passion.ru/news/eksklyuzivy/"},
		},
	}
}
