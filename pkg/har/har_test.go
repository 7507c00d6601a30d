package har

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "entries": [
      {
        "request": {"method": "GET", "url": "https://example.com/"},
        "response": {"status": 200, "content": {"mimeType": "text/html; charset=utf-8", "text": "<html><head><script src=\"/app.js\"></script><script>fetch('/api/inline')</script><script type=\"application/ld+json\">{}</script><script type=\"module\">import('/v1/mod')</script></head></html>"}}
      },
      {
        "request": {"method": "GET", "url": "https://example.com/app.js"},
        "response": {"status": 200, "content": {"mimeType": "application/javascript", "text": "ZmV0Y2goIi9hcGkvdXNlcnMiKQ==", "encoding": "base64"}}
      },
      {
        "request": {"method": "GET", "url": "https://example.com/logo.png"},
        "response": {"status": 200, "content": {"mimeType": "image/png"}}
      },
      {
        "request": {"method": "GET"},
        "response": {"status": 200, "content": {"mimeType": "text/plain", "text": "orphan"}}
      }
    ]
  }
}`

func fetch(t *testing.T, r types.Resource) string {
	t.Helper()
	content, err := r.FetchContent(context.Background())
	require.NoError(t, err)
	return content
}

func TestParse(t *testing.T) {
	resources, err := Parse([]byte(sampleHAR), Options{})
	require.NoError(t, err)
	require.Len(t, resources, 3)

	assert.Equal(t, "https://example.com/", resources[0].URL())
	assert.Equal(t, "https://example.com/app.js", resources[1].URL())
	assert.Equal(t, "application/javascript", resources[1].MimeType())
	assert.Equal(t, `fetch("/api/users")`, fetch(t, resources[1]))
	assert.Equal(t, "", fetch(t, resources[2]))
}

func TestParseInlineScripts(t *testing.T) {
	resources, err := Parse([]byte(sampleHAR), Options{InlineScripts: true})
	require.NoError(t, err)
	require.Len(t, resources, 5)

	assert.Equal(t, "https://example.com/#inline-1", resources[1].URL())
	assert.Equal(t, InlineScriptMimeType, resources[1].MimeType())
	assert.Equal(t, "fetch('/api/inline')", fetch(t, resources[1]))

	assert.Equal(t, "https://example.com/#inline-2", resources[2].URL())
	assert.Equal(t, "import('/v1/mod')", fetch(t, resources[2]))

	assert.Equal(t, "https://example.com/app.js", resources[3].URL())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"log":`), Options{})
	assert.ErrorContains(t, err, "not valid JSON")

	_, err = Parse([]byte(`{"log":{"entries":{}}}`), Options{})
	assert.ErrorContains(t, err, "no log.entries")

	resources, err := Parse([]byte(`{"log":{"entries":[]}}`), Options{})
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func TestEntryInvalidBase64(t *testing.T) {
	e := &Entry{url: "https://example.com/a.js", text: "%%%", encoding: "base64"}
	_, err := e.FetchContent(context.Background())
	assert.ErrorContains(t, err, "invalid base64")
}

func TestDecodeCharset(t *testing.T) {
	latin1 := []byte{'c', 'a', 'f', 0xE9}

	decoded, err := decodeCharset(latin1, "text/javascript; charset=ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", decoded)

	decoded, err = decodeCharset([]byte("plain"), "text/javascript")
	require.NoError(t, err)
	assert.Equal(t, "plain", decoded)

	decoded, err = decodeCharset([]byte("raw"), "text/javascript; charset=klingon")
	require.NoError(t, err)
	assert.Equal(t, "raw", decoded)

	decoded, err = decodeCharset([]byte("raw"), "")
	require.NoError(t, err)
	assert.Equal(t, "raw", decoded)
}

func TestEntryBase64WithCharset(t *testing.T) {
	e := &Entry{
		url:      "https://example.com/a.js",
		mimeType: "application/javascript; charset=windows-1252",
		text:     base64.StdEncoding.EncodeToString([]byte{'"', '/', 'a', 'p', 'i', '/', 0xE9, '"'}),
		encoding: "base64",
	}
	assert.Equal(t, `"/api/é"`, fetch(t, e))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.har")
	require.NoError(t, os.WriteFile(path, []byte(sampleHAR), 0o600))

	resources, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Len(t, resources, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.har"), Options{})
	assert.ErrorContains(t, err, "failed reading HAR file")
}
