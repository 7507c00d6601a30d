package result

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"gopkg.in/yaml.v3"
)

// Summary counts findings per kind.
type Summary struct {
	Resources int `json:"resources" yaml:"resources"`
	Endpoints int `json:"endpoints" yaml:"endpoints"`
	Secrets   int `json:"secrets" yaml:"secrets"`
}

// Report is the document written to result files.
type Report struct {
	Source   string          `json:"source,omitempty" yaml:"source,omitempty"`
	Summary  Summary         `json:"summary" yaml:"summary"`
	Findings []types.Finding `json:"findings" yaml:"findings"`
}

func NewReport(source string, resources int, findings []types.Finding) Report {
	report := Report{Source: source, Summary: Summary{Resources: resources}, Findings: findings}
	if report.Findings == nil {
		report.Findings = []types.Finding{}
	}
	for _, f := range findings {
		switch f.Kind {
		case types.KindEndpoint:
			report.Summary.Endpoints++
		case types.KindSecret:
			report.Summary.Secrets++
		}
	}
	return report
}

// Encode writes the report in the given output format.
func Encode(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(report)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	return config.ValidateOutputFormat(outputFormat)
}

// WriteFile stores the report at path, readable by the current user only.
func WriteFile(path string, outputFormat string, report Report) error {
	// #nosec G304 - output path is chosen by the user via --output
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, format.FileUserReadWrite)
	if err != nil {
		return fmt.Errorf("failed creating result file: %w", err)
	}

	if err := Encode(f, outputFormat, report); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed writing result file: %w", err)
	}
	return f.Close()
}
