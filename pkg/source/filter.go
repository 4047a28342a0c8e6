package source

import "strings"

// Filter restricts collection to configured topic keywords. An empty keyword
// list matches everything; exclude keywords always win.
type Filter struct {
	keywords []string
	exclude  []string
}

// NewFilter creates a filter from include/exclude keyword lists.
func NewFilter(keywords, excludeKeywords []string) *Filter {
	include := make([]string, len(keywords))
	for i, kw := range keywords {
		include[i] = strings.ToLower(kw)
	}

	exclude := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		exclude[i] = strings.ToLower(kw)
	}

	return &Filter{keywords: include, exclude: exclude}
}

// Matches returns true if text passes the filter.
func (f *Filter) Matches(text string) bool {
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	if len(f.keywords) == 0 {
		return true
	}

	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
