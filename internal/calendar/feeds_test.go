package calendar

import (
	"strings"
	"testing"
)

func TestFeedCatalog(t *testing.T) {
	feeds, err := FeedCatalog()
	if err != nil {
		t.Fatalf("FeedCatalog failed: %v", err)
	}

	if len(feeds) == 0 {
		t.Fatal("Expected a non-empty catalog")
	}

	for url, country := range feeds {
		if !strings.HasPrefix(url, "https://") {
			t.Errorf("Expected an absolute feed URL, got %q", url)
		}
		if strings.Contains(url, "%s") {
			t.Errorf("Expected the domain substituted into %q", url)
		}
		if country == "" {
			t.Errorf("Expected a country name for %q", url)
		}
	}
}
