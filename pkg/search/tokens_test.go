package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"simple", "mysql connection settings", []string{"mysql", "connection", "settings"}},
		{"stopwords dropped", "what is the mysql config", []string{"mysql", "config"}},
		{"punctuation split", "db.host=localhost, port:3306!", []string{"db", "host", "localhost", "port", "3306"}},
		{"case folded and deduped", "Redis REDIS redis", []string{"redis"}},
		{"single chars dropped", "a b c deploy", []string{"deploy"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.query)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
