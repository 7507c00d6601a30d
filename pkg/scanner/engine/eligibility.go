package engine

import (
	"net"
	"net/url"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

var (
	scriptSuffixes     = []string{".js", ".mjs"}
	scriptMimeKeywords = []string{"javascript", "ecmascript"}
	textSuffixes       = []string{".json", ".map", ".env", ".txt", ".html", ".htm", ".xml", ".yml", ".yaml", ".config"}
	textMimeKeywords   = []string{"json", "html", "xml", "text/plain"}
)

// IsScript reports whether the resource is a script payload worth scanning for endpoints.
func IsScript(res types.Resource) bool {
	path := format.StripQuery(res.URL())
	for _, suffix := range scriptSuffixes {
		if format.HasSuffixI(path, suffix) {
			return true
		}
	}
	return mimeContainsAny(res.MimeType(), scriptMimeKeywords)
}

// IsSecretCandidate reports whether the resource is textual enough to be scanned for secrets.
func IsSecretCandidate(res types.Resource) bool {
	if IsScript(res) {
		return true
	}

	path := format.StripQuery(res.URL())
	for _, suffix := range textSuffixes {
		if format.HasSuffixI(path, suffix) {
			return true
		}
	}
	return mimeContainsAny(res.MimeType(), textMimeKeywords)
}

func mimeContainsAny(mime string, keywords []string) bool {
	for _, keyword := range keywords {
		if format.ContainsI(mime, keyword) {
			return true
		}
	}
	return false
}

var defaultPorts = map[string]string{"http": "80", "https": "443", "ws": "80", "wss": "443"}

// BaseURL returns the origin (scheme://host[:port]) of an absolute URL and an
// empty string otherwise. Scheme and host are lowercased and the scheme's
// default port is dropped.
func BaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPorts[scheme] {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return scheme + "://" + host
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}
