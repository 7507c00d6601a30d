package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsI(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{name: "exact match", a: "javascript", b: "javascript", expected: true},
		{name: "case insensitive match", a: "Application/JavaScript", b: "javascript", expected: true},
		{name: "no match", a: "text/css", b: "javascript", expected: false},
		{name: "empty substring", a: "hello", b: "", expected: true},
		{name: "empty string", a: "", b: "hello", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsI(tt.a, tt.b))
		})
	}
}

func TestHasSuffixI(t *testing.T) {
	assert.True(t, HasSuffixI("https://example.com/APP.JS", ".js"))
	assert.True(t, HasSuffixI(".js", ".js"))
	assert.False(t, HasSuffixI("js", ".js"))
	assert.False(t, HasSuffixI("https://example.com/app.jsx", ".js"))
}

func TestStripQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://example.com/app.js?v=3", want: "https://example.com/app.js"},
		{in: "https://example.com/app.js#hash", want: "https://example.com/app.js"},
		{in: "/plain/path", want: "/plain/path"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripQuery(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "unlimited", Truncate("unlimited", 0))
	// "é" is two bytes; cutting inside it must back off to the rune start.
	assert.Equal(t, "a...", Truncate("aé", 2))
}

func TestIsDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "bundle.js")
	require.NoError(t, os.WriteFile(testFile, []byte("content"), 0644))

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "existing directory", path: tmpDir, expected: true},
		{name: "existing file", path: testFile, expected: false},
		{name: "non-existent path", path: filepath.Join(tmpDir, "nonexistent"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDirectory(tt.path))
		})
	}
}

func TestParseHumanSize(t *testing.T) {
	size, err := ParseHumanSize("5MB")
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), size)

	_, err = ParseHumanSize("lots")
	assert.Error(t, err)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "5MB", HumanSize(5000000))
	assert.Equal(t, "512B", HumanSize(512))
}
