package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avoronov/harvest/internal/validation"
)

var rules = validation.URLRules{AllowedProtocols: []string{"http", "https"}}

func TestURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "duplicates collapsed and non-url lines dropped",
			input: "https://example.com\nhttps://example.com\nnot a url\nhttp://test.org/path",
			want:  []string{"https://example.com", "http://test.org/path"},
		},
		{
			name:  "first url per line, rest of line discarded",
			input: "https://example.com/a some trailing note",
			want:  []string{"https://example.com/a"},
		},
		{
			name:  "case-insensitive protocol prefix",
			input: "HTTPS://Example.com",
			want:  []string{"https://example.com"},
		},
		{
			name:  "lines normalizing to same url collapse",
			input: "https://example.com/\nhttps://EXAMPLE.com:443",
			want:  []string{"https://example.com"},
		},
		{
			name:  "blank and whitespace lines skipped",
			input: "\n   \n\thttps://example.com\n",
			want:  []string{"https://example.com"},
		},
		{
			name:  "disallowed protocol line skipped",
			input: "ftp://example.com/file\nhttps://example.com",
			want:  []string{"https://example.com"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "order preserved",
			input: "https://b.example\nhttps://a.example\nhttps://b.example",
			want:  []string{"https://b.example", "https://a.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URLs(tt.input, rules))
		})
	}
}

func TestURLs_NeverReturnsDuplicates(t *testing.T) {
	input := "https://x.example\nhttps://x.example/\nhttps://X.EXAMPLE:443\nhttps://y.example"
	got := URLs(input, rules)

	seen := make(map[string]struct{})
	for _, u := range got {
		_, dup := seen[u]
		assert.False(t, dup, "duplicate %q in result", u)
		seen[u] = struct{}{}
	}
}
