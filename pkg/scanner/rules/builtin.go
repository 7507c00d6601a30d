package rules

import "github.com/CompassSecurity/harleek/pkg/scanner/types"

// Definition is the declarative form of a pattern. Adding a pattern means
// adding a row here, not a new code path.
type Definition struct {
	Name         string
	Kind         types.Kind
	Regex        string
	CaptureSlots []int
	Confidence   string
}

// quotes matches any of the three JavaScript string delimiters.
const quotes = "[\"'`]"

func quoted(inner string) string {
	return quotes + inner + quotes
}

// EndpointDefinitions returns the endpoint table in evaluation order. Order
// matters: when two patterns yield the same value in one resource, the
// earlier pattern keeps the attribution.
func EndpointDefinitions() []Definition {
	return withKind(types.KindEndpoint, []Definition{
		{Name: "apiPath", Regex: quoted(`(/api/[a-zA-Z0-9_\-/{}:]+)`)},
		{Name: "versionedPath", Regex: quoted(`(/v\d+/[a-zA-Z0-9_\-/{}:]+)`)},
		{Name: "fullUrl", Regex: quoted(`(https?://[a-zA-Z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+)`)},
		{Name: "relativePath", Regex: quoted(`(/[a-zA-Z0-9_\-]+(?:/[a-zA-Z0-9_\-{}:]+)+)`)},
		{Name: "graphqlPath", Regex: `(?i)` + quoted(`(/graphql|/gql)`)},
		{Name: "fetchCall", Regex: `(?:fetch|axios)\s*\(\s*` + quoted("([^\"'`]+)")},
		{Name: "axiosMethod", Regex: `(?i)axios\.(get|post|put|patch|delete|head|options)\s*\(\s*` + quoted("([^\"'`]+)"), CaptureSlots: []int{2}},
		{Name: "xhrOpen", Regex: `(?i)\.open\s*\(\s*["'](get|post|put|patch|delete|head|options)["']\s*,\s*` + quoted("([^\"'`]+)"), CaptureSlots: []int{2}},
		{Name: "templateUrl", Regex: "`([^`]*(?:https?://|/api/|/v\\d+/)[^`]*)`"},
		{Name: "restEndpoint", Regex: quoted(`(/(?:users|auth|login|logout|register|profile|settings|posts|comments|products|orders|payments|upload|download|search|items|entities|resources)(?:/[a-zA-Z0-9_\-{}:]*)?(?:/[a-zA-Z0-9_\-{}:]+)*)`)},
	})
}

// SecretDefinitions returns the built-in secret rules.
func SecretDefinitions() []Definition {
	return withKind(types.KindSecret, []Definition{
		{Name: "AWS Access Key ID", Regex: `\b((?:AKIA|ASIA|ABIA|ACCA)[0-9A-Z]{16})\b`, Confidence: types.ConfidenceHigh},
		{Name: "Google API Key", Regex: `\b(AIza[0-9A-Za-z\-_]{35})`, Confidence: types.ConfidenceHigh},
		{Name: "GitHub Token", Regex: `\b((?:ghp|gho|ghu|ghs|ghr)_[0-9A-Za-z]{36})\b`, Confidence: types.ConfidenceHigh},
		{Name: "GitLab Personal Access Token", Regex: `\b(glpat-[0-9A-Za-z\-_]{20})\b`, Confidence: types.ConfidenceHigh},
		{Name: "Slack Token", Regex: `\b(xox[baprs]-[0-9A-Za-z\-]{10,48})\b`, Confidence: types.ConfidenceHigh},
		{Name: "Stripe Secret Key", Regex: `\b((?:sk|rk)_live_[0-9A-Za-z]{24,99})\b`, Confidence: types.ConfidenceHigh},
		{Name: "Stripe Publishable Key", Regex: `\b(pk_(?:live|test)_[0-9A-Za-z]{16,99})\b`, Confidence: types.ConfidenceLow},
		{Name: "Firebase Cloud Messaging Key", Regex: `\b(AAAA[A-Za-z0-9_\-]{7}:[A-Za-z0-9_\-]{140})\b`, Confidence: types.ConfidenceHigh},
		{Name: "Private Key", Regex: `(-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----)`, Confidence: types.ConfidenceHigh},
		{Name: "JSON Web Token", Regex: `\b(eyJ[A-Za-z0-9_\-]{10,}\.eyJ[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,})`, Confidence: types.ConfidenceMedium},
		{Name: "Sentry DSN Key", Regex: `https?://([0-9a-f]{32})@[a-z0-9.\-]*sentry\.io/[0-9]+`, Confidence: types.ConfidenceLow},
		{Name: "Basic Auth Credentials", Regex: `[a-zA-Z][a-zA-Z0-9+.\-]*://([^:/\s"'@]{1,64}:[^@/\s"']{1,128})@[^\s"'/]+`, Confidence: types.ConfidenceMedium},
		{Name: "Bearer Token", Regex: `(?i)["']Bearer\s+([A-Za-z0-9_\-.=]{20,})["']`, Confidence: types.ConfidenceMedium},
		{Name: "Generic API Key", Regex: `(?i)(?:api[_\-]?key|x-api-key)["']?\s*[:=]\s*["']([A-Za-z0-9_\-]{16,})["']`, Confidence: types.ConfidenceMedium},
		{Name: "Generic Secret", Regex: `(?i)(?:client[_\-]?secret|secret[_\-]?key|access[_\-]?token|auth[_\-]?token)["']?\s*[:=]\s*["']([^"'\s]{8,})["']`, Confidence: types.ConfidenceLow},
		{Name: "Password Assignment", Regex: `(?i)(?:password|passwd|pwd)["']?\s*[:=]\s*["']([^"'\s]{8,})["']`, Confidence: types.ConfidenceLow},
	})
}

func withKind(kind types.Kind, defs []Definition) []Definition {
	for i := range defs {
		defs[i].Kind = kind
	}
	return defs
}
