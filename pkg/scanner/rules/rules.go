package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/httpclient"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/trufflesecurity/trufflehog/v3/pkg/detectors"
	"github.com/trufflesecurity/trufflehog/v3/pkg/engine/defaults"
	"gopkg.in/yaml.v3"
)

// DefaultRulesURL is the upstream secrets-patterns-db rule set.
const DefaultRulesURL = "https://raw.githubusercontent.com/mazen160/secrets-patterns-db/master/db/rules-stable.yml"

// DefaultRulesFileName is where DownloadRules stores the rule set.
const DefaultRulesFileName = "rules.yml"

var builtinPatterns = MustCompile(slices.Concat(EndpointDefinitions(), SecretDefinitions()))

// Library is an ordered, immutable set of compiled patterns plus optional
// TruffleHog detectors. It is safe for concurrent use.
type Library struct {
	patterns  []types.Pattern
	detectors []detectors.Detector
}

type Options struct {
	// RulesFile is an optional secrets-patterns-db YAML file appended to the built-in secret rules.
	RulesFile string
	// ConfidenceFilter keeps only secret rules with one of these confidence labels.
	ConfidenceFilter []string
	// TruffleHog enables the TruffleHog default detectors for secret scanning.
	TruffleHog bool
}

// Default returns the built-in library.
func Default() *Library {
	return &Library{patterns: builtinPatterns}
}

// New builds a library from the built-in tables and the given options. Every
// matcher is compiled here so a broken rule fails before any scan starts.
func New(opts Options) (*Library, error) {
	defs := slices.Concat(EndpointDefinitions(), SecretDefinitions())
	if len(opts.ConfidenceFilter) > 0 {
		log.Debug().Str("filter", strings.Join(opts.ConfidenceFilter, ",")).Msg("Applying confidence filter")
		defs = FilterByConfidence(defs, opts.ConfidenceFilter)
	}

	patterns, err := Compile(defs)
	if err != nil {
		return nil, err
	}

	if opts.RulesFile != "" {
		fileDefs, err := LoadRulesFile(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		if len(opts.ConfidenceFilter) > 0 {
			fileDefs = FilterByConfidence(fileDefs, opts.ConfidenceFilter)
		}
		filePatterns := CompileValid(fileDefs)
		log.Debug().Int("count", len(filePatterns)).Int("skipped", len(fileDefs)-len(filePatterns)).Str("file", opts.RulesFile).Msg("Loaded rules file")
		patterns = append(patterns, filePatterns...)
	}

	lib := &Library{patterns: patterns}
	if len(opts.ConfidenceFilter) > 0 && len(lib.PatternsOf(types.KindSecret)) == 0 {
		log.Info().Msg("Your confidence filter removed all secret rules, are you sure? TruffleHog detectors will still run if enabled")
	}
	if opts.TruffleHog {
		lib.detectors = defaults.DefaultDetectors()
		if len(lib.detectors) < 1 {
			return nil, errors.New("no trufflehog detectors have been loaded")
		}
		log.Debug().Int("count", len(lib.detectors)).Msg("Loaded TruffleHog detectors")
	}

	log.Debug().Int("endpoint", len(lib.PatternsOf(types.KindEndpoint))).Int("secret", len(lib.PatternsOf(types.KindSecret))).Msg("Pattern library ready")
	return lib, nil
}

// Compile compiles all definitions, failing on the first invalid one.
func Compile(defs []Definition) ([]types.Pattern, error) {
	patterns := make([]types.Pattern, 0, len(defs))

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("pattern with regex %q has no name", def.Regex)
		}

		m, err := regexp.Compile(def.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", def.Name, err)
		}

		for _, slot := range def.CaptureSlots {
			if slot < 0 || slot > m.NumSubexp() {
				return nil, fmt.Errorf("pattern %q has capture slot %d but only %d groups", def.Name, slot, m.NumSubexp())
			}
		}

		patterns = append(patterns, types.Pattern{
			Name:         def.Name,
			Kind:         def.Kind,
			Regex:        def.Regex,
			CaptureSlots: slices.Clone(def.CaptureSlots),
			Confidence:   def.Confidence,
			Matcher:      m,
		})
	}

	return patterns, nil
}

// CompileValid compiles the definitions it can and skips the rest. Rule files
// are written for PCRE engines and some expressions have no RE2 equivalent.
func CompileValid(defs []Definition) []types.Pattern {
	patterns := make([]types.Pattern, 0, len(defs))
	for _, def := range defs {
		compiled, err := Compile([]Definition{def})
		if err != nil {
			log.Trace().Err(err).Str("name", def.Name).Str("regex", def.Regex).Msg("Failed compiling regex expression")
			continue
		}
		patterns = append(patterns, compiled...)
	}
	return patterns
}

// MustCompile is Compile for static tables; it panics on error.
func MustCompile(defs []Definition) []types.Pattern {
	patterns, err := Compile(defs)
	if err != nil {
		panic(err)
	}
	return patterns
}

// FilterByConfidence drops secret definitions whose confidence is not listed.
// Endpoint definitions are never filtered.
func FilterByConfidence(defs []Definition, confidenceFilter []string) []Definition {
	filtered := []Definition{}
	for _, def := range defs {
		if def.Kind != types.KindSecret || slices.Contains(confidenceFilter, def.Confidence) {
			filtered = append(filtered, def)
		}
	}
	return filtered
}

// LoadRulesFile reads a secrets-patterns-db YAML file into secret definitions.
func LoadRulesFile(path string) ([]Definition, error) {
	// #nosec G304 - User-provided rules file path via --rules flag
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening rules file: %w", err)
	}

	secretsPatterns := types.SecretsPatterns{}
	if err := yaml.Unmarshal(yamlFile, &secretsPatterns); err != nil {
		return nil, fmt.Errorf("failed unmarshalling rules file: %w", err)
	}

	defs := make([]Definition, 0, len(secretsPatterns.Patterns))
	for _, p := range secretsPatterns.Patterns {
		defs = append(defs, Definition{
			Name:         p.Pattern.Name,
			Kind:         types.KindSecret,
			Regex:        p.Pattern.Regex,
			CaptureSlots: []int{0},
			Confidence:   p.Pattern.Confidence,
		})
	}
	return defs, nil
}

// DownloadRules fetches the rule set into fileName unless it already exists.
// A directory is completed with DefaultRulesFileName.
func DownloadRules(url string, fileName string) error {
	if format.IsDirectory(fileName) {
		fileName = filepath.Join(fileName, DefaultRulesFileName)
	}

	if _, err := os.Stat(fileName); err == nil {
		log.Debug().Str("file", fileName).Msg("Rules file already present, skipping download")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	log.Debug().Str("url", url).Msg("No rules file found, downloading")
	return downloadFile(url, fileName)
}

func downloadFile(url string, filepath string) error {
	client := httpclient.Default()
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return fmt.Errorf("downloading rules failed with status %d", resp.StatusCode)
	}

	// #nosec G304 - User-provided output path via --rules flag
	out, err := os.OpenFile(filepath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, format.FileUserReadWrite)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, resp.Body)
	return err
}

func (l *Library) Patterns() []types.Pattern {
	return l.patterns
}

// PatternsOf returns the patterns of one kind in library order.
func (l *Library) PatternsOf(kind types.Kind) []types.Pattern {
	out := []types.Pattern{}
	for _, p := range l.patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func (l *Library) Detectors() []detectors.Detector {
	return l.detectors
}
