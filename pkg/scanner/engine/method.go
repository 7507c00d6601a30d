package engine

import (
	"regexp"
	"strings"
)

// HTTPMethods in the order they are checked as quoted literals.
var HTTPMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

var (
	callSignatureRegex = regexp.MustCompile(`(?i)(?:^|[^\w$])(?:axios|\$http|http|httpClient|api|apiClient|client|request|instance|ky|superagent)\.(get|post|put|patch|delete|head|options)\s*\(`)
	methodOptionRegex  = regexp.MustCompile(`(?i)method\s*:\s*["'` + "`" + `](GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)["'` + "`" + `]`)
	quotedMethodRegex  = compileQuotedMethods()
	numericSegment     = regexp.MustCompile(`/\d+`)
)

func compileQuotedMethods() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(HTTPMethods))
	for i, method := range HTTPMethods {
		out[i] = regexp.MustCompile("(?i)[\"'`]" + method + "[\"'`]")
	}
	return out
}

// InferMethod guesses the HTTP method of an endpoint. Explicit evidence in the
// surrounding code wins over naming conventions of the endpoint itself.
func InferMethod(endpoint string, context string) string {
	if m := callSignatureRegex.FindStringSubmatch(context); m != nil {
		return strings.ToUpper(m[1])
	}

	if m := methodOptionRegex.FindStringSubmatch(context); m != nil {
		return strings.ToUpper(m[1])
	}

	for i, re := range quotedMethodRegex {
		if re.MatchString(context) {
			return HTTPMethods[i]
		}
	}

	return methodFromPath(endpoint)
}

func methodFromPath(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "{id}") || strings.Contains(endpoint, ":id") || numericSegment.MatchString(endpoint):
		return "GET"
	case containsAny(endpoint, "/login", "/register", "/upload", "/create"):
		return "POST"
	case containsAny(endpoint, "/update", "/edit"):
		return "PUT"
	case containsAny(endpoint, "/delete", "/remove"):
		return "DELETE"
	}
	return "GET"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
