package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/scanner/rules"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/trufflesecurity/trufflehog/v3/pkg/detectors"
	"github.com/wandb/parallel"
)

// DefaultMinConfidence is the acceptance threshold for findings.
const DefaultMinConfidence = 30

type Options struct {
	// Kinds selects which artifact classes are extracted.
	Kinds []types.Kind
	// MinConfidence drops findings scoring below it.
	MinConfidence int
	// Workers is the number of resources processed concurrently.
	Workers int
	// MaxContentSize skips resources with larger bodies, 0 disables the limit.
	MaxContentSize int64
	// VerifySecrets lets TruffleHog detectors verify their hits against the
	// issuing service. Hits are kept either way and carry their verification
	// state; dropping unverified ones is up to the caller.
	VerifySecrets bool
}

func DefaultOptions() Options {
	return Options{
		Kinds:         []types.Kind{types.KindEndpoint, types.KindSecret},
		MinConfidence: DefaultMinConfidence,
		Workers:       1,
	}
}

// Engine extracts findings from resources. It holds no per-scan state and can
// run several scans at once.
type Engine struct {
	opts             Options
	endpointPatterns []types.Pattern
	secretPatterns   []types.Pattern
	detectors        []detectors.Detector
}

func New(lib *rules.Library, opts Options) (*Engine, error) {
	if lib == nil {
		return nil, errors.New("pattern library is required")
	}
	if len(opts.Kinds) == 0 {
		return nil, errors.New("at least one kind must be enabled")
	}
	for _, kind := range opts.Kinds {
		if kind != types.KindEndpoint && kind != types.KindSecret {
			return nil, fmt.Errorf("unknown kind %q", kind)
		}
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 100 {
		return nil, fmt.Errorf("min confidence must be between 0 and 100, got %d", opts.MinConfidence)
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", opts.Workers)
	}
	if opts.MaxContentSize < 0 {
		return nil, fmt.Errorf("max content size must not be negative, got %d", opts.MaxContentSize)
	}

	e := &Engine{opts: opts}
	if slices.Contains(opts.Kinds, types.KindEndpoint) {
		e.endpointPatterns = lib.PatternsOf(types.KindEndpoint)
	}
	if slices.Contains(opts.Kinds, types.KindSecret) {
		e.secretPatterns = lib.PatternsOf(types.KindSecret)
		e.detectors = lib.Detectors()
	}
	return e, nil
}

func (e *Engine) scansEndpoints() bool {
	return len(e.endpointPatterns) > 0
}

func (e *Engine) scansSecrets() bool {
	return len(e.secretPatterns) > 0 || len(e.detectors) > 0
}

type job struct {
	resource types.Resource
	endpoint bool
	secret   bool
}

// Scan extracts findings from resources and returns them sorted by confidence,
// highest first. Ties keep discovery order: resource order, then pattern
// order, then match position. onProgress may be nil.
func (e *Engine) Scan(ctx context.Context, resources []types.Resource, onProgress types.ProgressFunc) []types.Finding {
	jobs := e.plan(resources)
	total := len(jobs)
	if total == 0 {
		log.Debug().Int("resources", len(resources)).Msg("No eligible resources")
		return []types.Finding{}
	}

	log.Debug().Int("eligible", total).Int("resources", len(resources)).Int("workers", e.opts.Workers).Msg("Starting scan")

	perJob := make([][]claim, total)

	var progressMu sync.Mutex
	processed := 0
	advance := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		processed++
		if onProgress != nil {
			onProgress(processed, total)
		}
	}

	// Workers never see cancellation of ctx; it only reaches the fetches.
	group := parallel.Limited(context.WithoutCancel(ctx), e.opts.Workers)
	for i, j := range jobs {
		group.Go(func(context.Context) {
			defer advance()
			perJob[i] = e.process(ctx, j)
		})
	}
	group.Wait()

	findings := merge(perJob)
	slices.SortStableFunc(findings, func(a, b types.Finding) int {
		return b.Confidence - a.Confidence
	})

	log.Debug().Int("findings", len(findings)).Msg("Scan finished")
	return findings
}

func (e *Engine) plan(resources []types.Resource) []job {
	jobs := []job{}
	for _, res := range resources {
		if res == nil {
			continue
		}
		j := job{
			resource: res,
			endpoint: e.scansEndpoints() && IsScript(res),
			secret:   e.scansSecrets() && IsSecretCandidate(res),
		}
		if j.endpoint || j.secret {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// process fetches and scans one resource. A panic stops the resource but the
// claims gathered up to that point are returned.
func (e *Engine) process(ctx context.Context, j job) (claims []claim) {
	url := j.resource.URL()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("url", url).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Recovered from panic while scanning resource")
		}
	}()

	content, err := j.resource.FetchContent(ctx)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Failed fetching resource content")
		return nil
	}
	if content == "" {
		log.Trace().Str("url", url).Msg("Empty resource content")
		return nil
	}
	if e.opts.MaxContentSize > 0 && int64(len(content)) > e.opts.MaxContentSize {
		log.Debug().Str("url", url).Str("size", format.HumanSize(int64(len(content)))).Msg("Skipped resource, content too large")
		return nil
	}

	dedup := NewDeduplicator()
	emit := func(c claim) {
		claims = append(claims, c)
	}

	if j.endpoint {
		e.extractEndpoints(content, url, BaseURL(url), dedup, emit)
	}
	if j.secret {
		e.extractSecrets(content, url, dedup, emit)
		e.extractDetectorHits(ctx, content, url, dedup, emit)
	}

	log.Trace().Str("url", url).Int("candidates", len(claims)).Msg("Scanned resource")
	return claims
}

// merge flattens per-resource claims in resource order. The first claim of a
// (value, source) pair wins across resources too, even when it was rejected.
func merge(perJob [][]claim) []types.Finding {
	dedup := NewDeduplicator()
	findings := []types.Finding{}
	for _, claims := range perJob {
		for _, c := range claims {
			if !dedup.Claim(c.finding.Value, c.finding.SourceFile) {
				continue
			}
			if c.accepted {
				findings = append(findings, c.finding)
			}
		}
	}
	return findings
}
