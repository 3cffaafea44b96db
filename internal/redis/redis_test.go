package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		parts  []string
		want   string
	}{
		{"prefix only", KeyPrefixRoute, nil, "route"},
		{"single part", KeyPrefixToken, []string{"drv-1"}, "token:drv-1"},
		{"several parts", KeyPrefixRejections, []string{"drv-1", "2026-10-19"}, "rejections:drv-1:2026-10-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateKey(tt.prefix, tt.parts...))
		})
	}
}
