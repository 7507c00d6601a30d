// Package httpclient builds the retrying HTTP clients harleek uses to fetch
// rule sets and remote resources.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent unless the caller configures another one.
const DefaultUserAgent = "harleek"

// DefaultTimeout bounds a single request attempt.
const DefaultTimeout = 30 * time.Second

// ignoreProxy disables HTTP_PROXY handling when set.
var ignoreProxy atomic.Bool

func SetIgnoreProxy(ignore bool) {
	ignoreProxy.Store(ignore)
}

// Config describes a client. The zero value is usable.
type Config struct {
	// CookieURL scopes Cookies. Required when Cookies is not empty.
	CookieURL string
	Cookies   []*http.Cookie
	// Headers are added to every request that does not set them itself.
	Headers   map[string]string
	UserAgent string
	Timeout   time.Duration
	// RetryMax overrides the retryablehttp default when positive.
	RetryMax int
}

// HeaderRoundTripper adds default headers to requests that lack them.
type HeaderRoundTripper struct {
	Headers map[string]string
	Next    http.RoundTripper
}

func (hrt *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if hrt.Next == nil {
		return nil, http.ErrNotSupported
	}

	for k, v := range hrt.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	return hrt.Next.RoundTrip(req)
}

// New creates a retrying client. 429 and 5xx responses other than 501 are
// retried, TLS verification is disabled and HTTP_PROXY is honoured unless
// SetIgnoreProxy(true) was called.
func New(cfg Config) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.CheckRetry = checkRetry
	if cfg.RetryMax > 0 {
		client.RetryMax = cfg.RetryMax
	}

	if len(cfg.Cookies) > 0 {
		jar, err := cookieJar(cfg.CookieURL, cfg.Cookies)
		if err != nil {
			return nil, err
		}
		client.HTTPClient.Jar = jar
	}

	client.HTTPClient.Timeout = DefaultTimeout
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}

	// #nosec G402 - captured traffic often points at hosts with self-signed certificates
	tr := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}

	if !ignoreProxy.Load() {
		if proxyServer, ok := os.LookupEnv("HTTP_PROXY"); ok {
			proxyUrl, err := url.Parse(proxyServer)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy URL in HTTP_PROXY %q: %w", proxyServer, err)
			}
			log.Debug().Str("proxy", proxyUrl.String()).Msg("Using HTTP_PROXY")
			tr.Proxy = http.ProxyURL(proxyUrl)
		}
	}

	headers := map[string]string{"User-Agent": DefaultUserAgent}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	client.HTTPClient.Transport = &HeaderRoundTripper{Headers: headers, Next: tr}
	return client, nil
}

// Default returns a client with the zero Config. A broken HTTP_PROXY is fatal.
func Default() *retryablehttp.Client {
	client, err := New(Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating HTTP client")
	}
	return client
}

// NewStandard wraps a retrying client into a plain *http.Client for libraries
// that expect one.
func NewStandard(cfg Config) (*http.Client, error) {
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return client.StandardClient(), nil
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		log.Debug().Err(err).Msg("Retrying HTTP request, error occurred")
		return true, nil
	}

	if resp == nil {
		return false, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented) {
		url := ""
		if resp.Request != nil && resp.Request.URL != nil {
			url = resp.Request.URL.String()
		}
		log.Trace().Str("url", url).Int("statusCode", resp.StatusCode).Msg("Retrying HTTP request")
		return true, nil
	}

	return false, nil
}

func cookieJar(cookieUrl string, cookies []*http.Cookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed creating cookie jar: %w", err)
	}

	urlParsed, err := url.Parse(cookieUrl)
	if err != nil || urlParsed.Host == "" {
		return nil, fmt.Errorf("invalid cookie URL %q", cookieUrl)
	}

	jar.SetCookies(urlParsed, cookies)
	return jar, nil
}

// ParseHeaders turns "Name: value" strings into a header map.
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := map[string]string{}
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// ParseCookies parses a Cookie header style string such as "a=1; b=2".
func ParseCookies(raw string) ([]*http.Cookie, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	cookies, err := http.ParseCookie(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cookies %q: %w", raw, err)
	}
	return cookies, nil
}
