// Package har loads HTTP Archive (HAR 1.2) captures as scan resources.
package har

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/htmlindex"
)

// InlineScriptMimeType is the mime type given to extracted inline scripts.
const InlineScriptMimeType = "text/javascript"

type Options struct {
	// InlineScripts adds the <script> bodies of HTML responses as extra resources.
	InlineScripts bool
}

// Entry is one HAR entry. Decoding happens on FetchContent.
type Entry struct {
	url      string
	mimeType string
	text     string
	encoding string
}

func (e *Entry) URL() string      { return e.url }
func (e *Entry) MimeType() string { return e.mimeType }

func (e *Entry) FetchContent(ctx context.Context) (string, error) {
	if e.text == "" {
		return "", nil
	}
	if e.encoding != "base64" {
		return e.text, nil
	}

	raw, err := base64.StdEncoding.DecodeString(e.text)
	if err != nil {
		return "", fmt.Errorf("invalid base64 body for %s: %w", e.url, err)
	}
	return decodeCharset(raw, e.mimeType)
}

// InlineScript is a <script> body taken from an HTML entry.
type InlineScript struct {
	url     string
	content string
}

func (s *InlineScript) URL() string      { return s.url }
func (s *InlineScript) MimeType() string { return InlineScriptMimeType }

func (s *InlineScript) FetchContent(ctx context.Context) (string, error) {
	return s.content, nil
}

// Load reads a HAR file from disk.
func Load(path string, opts Options) ([]types.Resource, error) {
	// #nosec G304 - HAR path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading HAR file: %w", err)
	}
	return Parse(data, opts)
}

// Parse returns one resource per entry in capture order. With InlineScripts
// the scripts of an HTML entry directly follow that entry.
func Parse(data []byte, opts Options) ([]types.Resource, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("HAR file is not valid JSON")
	}

	entries := gjson.GetBytes(data, "log.entries")
	if !entries.IsArray() {
		return nil, errors.New("HAR file has no log.entries array")
	}

	resources := []types.Resource{}
	entries.ForEach(func(_, value gjson.Result) bool {
		url := value.Get("request.url").String()
		if url == "" {
			log.Trace().Msg("Skipping HAR entry without request URL")
			return true
		}

		entry := &Entry{
			url:      url,
			mimeType: value.Get("response.content.mimeType").String(),
			text:     value.Get("response.content.text").String(),
			encoding: value.Get("response.content.encoding").String(),
		}
		resources = append(resources, entry)

		if opts.InlineScripts && strings.Contains(strings.ToLower(entry.mimeType), "html") {
			resources = append(resources, inlineScripts(entry)...)
		}
		return true
	})

	log.Debug().Int("resources", len(resources)).Msg("Parsed HAR file")
	return resources, nil
}

func inlineScripts(entry *Entry) []types.Resource {
	html, err := entry.FetchContent(context.Background())
	if err != nil || html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Debug().Err(err).Str("url", entry.url).Msg("Failed parsing HTML for inline scripts")
		return nil
	}

	scripts := []types.Resource{}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, hasSrc := s.Attr("src"); hasSrc {
			return
		}
		if scriptType, ok := s.Attr("type"); ok && !isJavaScriptType(scriptType) {
			return
		}

		body := strings.TrimSpace(s.Text())
		if body == "" {
			return
		}
		scripts = append(scripts, &InlineScript{
			url:     fmt.Sprintf("%s#inline-%d", entry.url, len(scripts)+1),
			content: body,
		})
	})
	return scripts
}

func isJavaScriptType(scriptType string) bool {
	switch strings.ToLower(strings.TrimSpace(scriptType)) {
	case "", "module", "text/javascript", "application/javascript", "text/ecmascript", "application/ecmascript":
		return true
	}
	return false
}

// decodeCharset converts raw to UTF-8 according to the charset parameter of mimeType.
func decodeCharset(raw []byte, mimeType string) (string, error) {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return string(raw), nil
	}

	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		log.Trace().Str("charset", charset).Msg("Unknown charset, using raw bytes")
		return string(raw), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed decoding %s body: %w", charset, err)
	}
	return string(decoded), nil
}
