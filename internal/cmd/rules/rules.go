package rules

import (
	"fmt"
	"slices"

	"github.com/CompassSecurity/harleek/pkg/config"
	pkgrules "github.com/CompassSecurity/harleek/pkg/scanner/rules"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewRulesRootCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules [command]",
		Short: "Inspect and download pattern rules",
	}

	rulesCmd.AddCommand(NewListCmd())
	rulesCmd.AddCommand(NewDownloadCmd())

	return rulesCmd
}

type ListOptions struct {
	RulesFile        string
	ConfidenceFilter []string
	Kinds            []string
}

func NewListCmd() *cobra.Command {
	options := ListOptions{Kinds: []string{string(types.KindEndpoint), string(types.KindSecret)}}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the patterns a scan would use",
		Example: `
# Built-in patterns
harleek rules list

# Secret rules of a downloaded rules file with high confidence
harleek rules list --kinds secret --rules rules.yml --confidence high
		`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			kinds, err := config.ParseKinds(options.Kinds)
			if err != nil {
				log.Fatal().Err(err).Msg("Invalid kinds")
			}
			if err := config.ValidateConfidenceFilter(options.ConfidenceFilter); err != nil {
				log.Fatal().Err(err).Msg("Invalid confidence filter")
			}

			lib, err := pkgrules.New(pkgrules.Options{
				RulesFile:        options.RulesFile,
				ConfidenceFilter: options.ConfidenceFilter,
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed building pattern library")
			}

			for _, line := range listPatterns(lib, kinds) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		},
	}

	listCmd.Flags().StringSliceVarP(&options.Kinds, "kinds", "k", options.Kinds, "Pattern kinds to list: endpoint, secret")
	listCmd.Flags().StringVarP(&options.RulesFile, "rules", "r", "", "Additional secrets-patterns-db rules file")
	listCmd.Flags().StringSliceVarP(&options.ConfidenceFilter, "confidence", "", []string{}, "Keep only secret rules with these confidence labels")

	return listCmd
}

// listPatterns renders one tab separated line per pattern in library order.
func listPatterns(lib *pkgrules.Library, kinds []types.Kind) []string {
	lines := []string{}
	for _, p := range lib.Patterns() {
		if !slices.Contains(kinds, p.Kind) {
			continue
		}
		confidence := p.Confidence
		if confidence == "" {
			confidence = "-"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", p.Kind, p.Name, confidence, p.Regex))
	}
	return lines
}

func NewDownloadCmd() *cobra.Command {
	var url, output string

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download the secrets-patterns-db rule set",
		Long:  "Download the secrets-patterns-db rule set for use with --rules. An existing file is left untouched.",
		Example: `
harleek rules download -o rules.yml
harleek scan har capture.har --rules rules.yml
		`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.ValidateURL(url, "Rules URL"); err != nil {
				log.Fatal().Err(err).Msg("Invalid rules URL")
			}
			if err := pkgrules.DownloadRules(url, output); err != nil {
				log.Fatal().Err(err).Str("url", url).Msg("Failed downloading rules")
			}
			log.Info().Str("file", output).Msg("Rules ready")
		},
	}

	downloadCmd.Flags().StringVarP(&url, "url", "u", pkgrules.DefaultRulesURL, "Rules file URL")
	downloadCmd.Flags().StringVarP(&output, "output", "o", pkgrules.DefaultRulesFileName, "Where to store the rules file")

	return downloadCmd
}
