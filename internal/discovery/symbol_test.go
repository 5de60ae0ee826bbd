package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		rawLabel string
		want     string
	}{
		{"plain pair label", "Foo BAR", "$BAR"},
		{"dlmm marker shifts symbol", "Foo DLMM BAR", "$BAR"},
		{"clmm marker shifts symbol", "Foo CLMM WIF", "$WIF"},
		{"cpmm marker shifts symbol", "Foo CPMM PEPE", "$PEPE"},
		{"single token label", "Foo", "$UNKNOWN"},
		{"empty label", "", "$UNKNOWN"},
		{"marker without symbol", "Foo DLMM", "$UNKNOWN"},
		{"extra whitespace", "  Foo   BAR  ", "$BAR"},
		{"marker not in second position", "DLMM BAR", "$BAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.rawLabel))
		})
	}
}

func TestSearchTerm(t *testing.T) {
	// Short cashtags keep the marker, long ones are searched bare.
	assert.Equal(t, "$WIF", SearchTerm("$WIF"))
	assert.Equal(t, "$ABCDE", SearchTerm("$ABCDE"))   // exactly 6 chars, kept
	assert.Equal(t, "ABCDEF", SearchTerm("$ABCDEF")) // 7 chars, marker stripped
	assert.Equal(t, "LONGTAIL", SearchTerm("$LONGTAIL"))
}
