package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "小写化",
			input:    "https://GitHub.com/X/FastMCP",
			expected: "github.com/x/fastmcp",
		},
		{
			name:     "去掉末尾斜杠",
			input:    "https://github.com/x/y/",
			expected: "github.com/x/y",
		},
		{
			name:     "http 与 https 等价",
			input:    "http://github.com/x/y",
			expected: "github.com/x/y",
		},
		{
			name:     "去掉首尾空白",
			input:    "  https://github.com/x/y  ",
			expected: "github.com/x/y",
		},
		{
			name:     "空字符串",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRepoURL(tt.input))
		})
	}
}

func TestNormalizeRepoURL_斜杠与协议差异归并为同一键(t *testing.T) {
	a := &ServerRecord{HTMLURL: "https://github.com/x/y"}
	b := &ServerRecord{HTMLURL: "https://github.com/x/y/"}
	c := &ServerRecord{HTMLURL: "http://github.com/X/Y"}

	assert.Equal(t, a.DedupKey(), b.DedupKey())
	assert.Equal(t, a.DedupKey(), c.DedupKey())
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, IsValidCategory(c), c)
	}
	assert.False(t, IsValidCategory(""))
	assert.False(t, IsValidCategory("framework")) // 大小写敏感
	assert.False(t, IsValidCategory("Community"))
}
