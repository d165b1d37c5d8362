package spot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"free marker", "免费", 0},
		{"free with context", "儿童免费入园", 0},
		{"range takes minimum", "¥50-¥80", 50},
		{"suffix yuan", "120元", 120},
		{"fullwidth yen and digits", "￥６０", 60},
		{"decimal", "¥35.5起", 35.5},
		{"multiple amounts", "成人80元 儿童40元", 40},
		{"no number", "需预约", 0},
		{"mixed text", "门票:¥90(含观光车)", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.raw))
		})
	}
}
