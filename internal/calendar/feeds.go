package calendar

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed holiday_calendars.yml
var feedCatalogYAML []byte

type feedCatalogFile struct {
	URL       string            `yaml:"url"`
	Countries map[string]string `yaml:"countries"`
}

// FeedCatalog returns the static map of known public-holiday feed URLs to
// country names. The catalog is read-only configuration; the sync engine
// never mutates it.
func FeedCatalog() (map[string]string, error) {
	var catalog feedCatalogFile
	if err := yaml.Unmarshal(feedCatalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parsing feed catalog: %w", err)
	}

	feeds := make(map[string]string, len(catalog.Countries))
	for country, domain := range catalog.Countries {
		feeds[fmt.Sprintf(catalog.URL, domain)] = country
	}
	return feeds, nil
}
