package result

import (
	"strings"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/logging"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

// maxReportedValueLength caps values in log lines; result files keep the full value.
const maxReportedValueLength = 1024

type ReportOptions struct {
	// Source names the input the findings came from, e.g. "har" or "urls".
	Source string
}

func ReportFindings(findings []types.Finding, opts ReportOptions) {
	for _, finding := range findings {
		ReportFinding(finding, opts)
	}
}

// ReportFinding logs one finding as a hit event.
func ReportFinding(finding types.Finding, opts ReportOptions) {
	event := logging.Hit().
		Str("kind", string(finding.Kind)).
		Int("confidence", finding.Confidence).
		Str("patternName", finding.PatternName).
		Str("value", format.Truncate(finding.Value, maxReportedValueLength)).
		Str("url", finding.SourceFile)

	if finding.Method != "" {
		event = event.Str("method", finding.Method)
	}
	if finding.BaseURL != "" {
		event = event.Str("baseUrl", finding.BaseURL)
	}
	if finding.Verification != "" {
		event = event.Str("verification", finding.Verification)
	}
	if opts.Source != "" {
		event = event.Str("source", opts.Source)
	}

	event.Msg(strings.ToUpper(string(finding.Kind)))
}
