package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

// ValidateURL validates that a string is an absolute http(s) URL.
func ValidateURL(urlStr string, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", fieldName, err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("%s must include a scheme (http/https)", fieldName)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s has unsupported scheme %q", fieldName, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}

	return nil
}

// ParseMaxContentSize parses a human-readable size ("500KB", "5MB"). An empty
// string or "0" disables the limit.
func ParseMaxContentSize(sizeStr string) (int64, error) {
	if sizeStr == "" || sizeStr == "0" {
		return 0, nil
	}
	size, err := format.ParseHumanSize(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse max content size: %w", err)
	}
	if size < 0 {
		return 0, fmt.Errorf("max content size must not be negative, got %s", sizeStr)
	}
	return size, nil
}

func ValidateThreadCount(threads int) error {
	if threads < 1 {
		return fmt.Errorf("thread count must be at least 1, got %d", threads)
	}
	if threads > 100 {
		return fmt.Errorf("thread count too high (max 100), got %d", threads)
	}
	return nil
}

func ValidateMinConfidence(confidence int) error {
	if confidence < 0 || confidence > 100 {
		return fmt.Errorf("min confidence must be between 0 and 100, got %d", confidence)
	}
	return nil
}

// ParseKinds turns kind names into types.Kind values, rejecting unknown and empty lists.
func ParseKinds(kinds []string) ([]types.Kind, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("at least one kind is required (%s, %s)", types.KindEndpoint, types.KindSecret)
	}

	parsed := []types.Kind{}
	for _, k := range kinds {
		kind := types.Kind(strings.ToLower(strings.TrimSpace(k)))
		if kind != types.KindEndpoint && kind != types.KindSecret {
			return nil, fmt.Errorf("unknown kind %q", k)
		}
		if !slices.Contains(parsed, kind) {
			parsed = append(parsed, kind)
		}
	}
	return parsed, nil
}

// ValidateConfidenceFilter accepts the rule confidence labels only.
func ValidateConfidenceFilter(filter []string) error {
	allowed := []string{types.ConfidenceHigh, types.ConfidenceMedium, types.ConfidenceLow}
	for _, c := range filter {
		if !slices.Contains(allowed, c) {
			return fmt.Errorf("invalid confidence %q, expected one of %s", c, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func ValidateOutputFormat(outputFormat string) error {
	switch outputFormat {
	case OutputFormatJSON, OutputFormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q, use %s or %s", outputFormat, OutputFormatJSON, OutputFormatYAML)
}
