package pagefetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		fetched *Content
		want    Content
	}{
		{
			name:    "nil fetch falls back to crawl export",
			fetched: nil,
			want:    Content{Title: "Crawl Title", H1: "Crawl H1", Intro: "Crawl meta description"},
		},
		{
			name:    "fetched fields win",
			fetched: &Content{Title: "Live Title", H1: "Live H1", Intro: "A long intro paragraph."},
			want:    Content{Title: "Live Title", H1: "Live H1", Intro: "A long intro paragraph."},
		},
		{
			name:    "partial fetch keeps fallbacks for gaps",
			fetched: &Content{H1: "Live H1"},
			want:    Content{Title: "Crawl Title", H1: "Live H1", Intro: "Crawl meta description"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.fetched, "Crawl Title", "Crawl H1", "Crawl meta description")
			assert.Equal(t, tc.want, got)
		})
	}
}
