package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionLookup_IsValid(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		key        string
		want       bool
	}{
		{name: "empty lookup accepts everything", key: "logs/app.bin", want: true},
		{name: "matching extension", extensions: []string{".log"}, key: "logs/app.log", want: true},
		{name: "case insensitive", extensions: []string{".LOG"}, key: "logs/APP.Log", want: true},
		{name: "compressed object", extensions: []string{".jsonl"}, key: "2024/01/01/app.jsonl.gz", want: true},
		{name: "explicit compressed extension", extensions: []string{".gz"}, key: "app.jsonl.gz", want: true},
		{name: "non matching", extensions: []string{".log"}, key: "logs/app.json", want: false},
		{name: "non matching compressed", extensions: []string{".log"}, key: "logs/app.json.gz", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewExtensionLookup(tt.extensions).IsValid(tt.key))
		})
	}
}
