package scan

import (
	"context"
	"errors"

	"github.com/CompassSecurity/harleek/internal/cmd/flags"
	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/httpclient"
	"github.com/CompassSecurity/harleek/pkg/remote"
	"github.com/spf13/cobra"
)

type UrlsScanOptions struct {
	config.ScanOptions
	Headers   []string
	Cookies   string
	CookieURL string
	UserAgent string
}

func NewUrlsCmd() *cobra.Command {
	options := UrlsScanOptions{ScanOptions: config.DefaultScanOptions()}

	urlsCmd := &cobra.Command{
		Use:   "urls <list.txt>",
		Short: "Fetch and scan the resources of a URL list",
		Long: `Fetch every URL of a list and scan the response bodies.
The list holds one URL per line or JSON lines like {"url": "https://app.example.com/main.js", "mimeType": "application/javascript"}. Lines starting with # are ignored.
Bodies are fetched lazily, --threads controls how many are in flight. Bodies above --max-content-size are not downloaded completely.`,
		Example: `
# Scan the script bundles of a single page application
harleek scan urls bundles.txt --threads 8

# Authenticated fetches
harleek scan urls bundles.jsonl --header "Authorization: Bearer xxxxxx" --cookie "session=abc" --cookie-url https://app.example.com
		`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			finish(scanUrls(cmd.Context(), args[0], options))
		},
	}

	flags.AddScanFlags(urlsCmd, &options.ScanOptions)
	urlsCmd.Flags().StringArrayVarP(&options.Headers, "header", "H", []string{}, "Request header 'Name: value', can be repeated")
	urlsCmd.Flags().StringVarP(&options.Cookies, "cookie", "c", "", "Cookies sent with every request, e.g. 'a=1; b=2'")
	urlsCmd.Flags().StringVarP(&options.CookieURL, "cookie-url", "", "", "URL the cookies are scoped to")
	urlsCmd.Flags().StringVarP(&options.UserAgent, "user-agent", "", httpclient.DefaultUserAgent, "User-Agent header")
	urlsCmd.MarkFlagsRequiredTogether("cookie", "cookie-url")

	return urlsCmd
}

func scanUrls(ctx context.Context, listPath string, options UrlsScanOptions) error {
	r, err := newRunner("urls", options.ScanOptions)
	if err != nil {
		return err
	}

	headers, err := httpclient.ParseHeaders(options.Headers)
	if err != nil {
		return err
	}
	cookies, err := httpclient.ParseCookies(options.Cookies)
	if err != nil {
		return err
	}
	if len(cookies) > 0 {
		if err := config.ValidateURL(options.CookieURL, "Cookie URL"); err != nil {
			return errors.Join(errors.New("--cookie requires a valid --cookie-url"), err)
		}
	}
	maxBodySize, err := config.ParseMaxContentSize(options.MaxContentSize)
	if err != nil {
		return err
	}

	targets, err := remote.LoadList(listPath)
	if err != nil {
		return err
	}

	fetcher, err := remote.NewFetcher(httpclient.Config{
		CookieURL: options.CookieURL,
		Cookies:   cookies,
		Headers:   headers,
		UserAgent: options.UserAgent,
	}, maxBodySize)
	if err != nil {
		return err
	}
	defer func() { _ = fetcher.Close() }()

	return execute(ctx, r, remote.Resources(targets, fetcher))
}
