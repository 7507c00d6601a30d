// Package remote reads URL lists and fetches the listed resources over HTTP.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/httpclient"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/perimeterx/marshmallow"
	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

// Target is one line of a URL list.
type Target struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// ParseList reads plain URLs or JSON lines ({"url": ..., "mimeType": ...}).
// Blank lines and lines starting with # are ignored; invalid lines are logged
// and skipped.
func ParseList(data []byte) []Target {
	targets := []Target{}
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		t := Target{URL: string(line)}
		if line[0] == '{' {
			t = Target{}
			if _, err := marshmallow.Unmarshal(line, &t); err != nil {
				log.Error().Err(err).Int("line", i+1).Msg("Failed unmarshalling jsonl line")
				continue
			}
		}

		if err := config.ValidateURL(t.URL, "URL"); err != nil {
			log.Warn().Err(err).Int("line", i+1).Msg("Skipping invalid URL")
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// LoadList reads a URL list file.
func LoadList(path string) ([]Target, error) {
	// #nosec G304 - list path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading URL list: %w", err)
	}
	return ParseList(data), nil
}

// Fetcher downloads resource bodies.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher. Bodies larger than maxBodySize fail the fetch
// without being buffered; 0 disables the limit.
func NewFetcher(cfg httpclient.Config, maxBodySize int64) (*Fetcher, error) {
	hc, err := httpclient.NewStandard(cfg)
	if err != nil {
		return nil, err
	}
	client := resty.NewWithClient(hc).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetResponseBodyLimit(maxBodySize)
	return &Fetcher{client: client}, nil
}

func (f *Fetcher) Close() error {
	return f.client.Close()
}

// Fetch returns the body of a GET request. Responses with status >= 400 are errors.
func (f *Fetcher) Fetch(ctx context.Context, reqUrl string) (string, error) {
	res, err := f.client.R().SetContext(ctx).Get(reqUrl)
	if err != nil {
		return "", fmt.Errorf("failed fetching %s: %w", reqUrl, err)
	}
	if res.StatusCode() >= 400 {
		return "", fmt.Errorf("failed fetching %s: status %d", reqUrl, res.StatusCode())
	}
	return res.String(), nil
}

// Resource is a remote URL fetched on demand.
type Resource struct {
	target  Target
	fetcher *Fetcher
}

func (r *Resource) URL() string { return r.target.URL }

// MimeType is the declared type, or a guess from the URL path.
func (r *Resource) MimeType() string {
	if r.target.MimeType != "" {
		return r.target.MimeType
	}
	u, err := url.Parse(r.target.URL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

func (r *Resource) FetchContent(ctx context.Context) (string, error) {
	return r.fetcher.Fetch(ctx, r.target.URL)
}

// Resources wraps targets into scan resources sharing one fetcher.
func Resources(targets []Target, fetcher *Fetcher) []types.Resource {
	resources := make([]types.Resource, 0, len(targets))
	for _, t := range targets {
		resources = append(resources, &Resource{target: t, fetcher: fetcher})
	}
	return resources
}
