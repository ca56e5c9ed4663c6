package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/engine"
	"github.com/use-agent/sitecheck/region"
	"github.com/use-agent/sitecheck/report"
)

type checkOptions struct {
	fetchMode string
	format    string
	out       string
	htmlFile  string
	regions   string
	timeout   time.Duration
	width     int
	height    int
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check [url]",
	Short: "Validate one page and print the report",
	Long: `Check captures a page, runs every region check and prints the report.
The exit status is 2 when any check failed.

Example:
  sitecheck check https://www.rwth-aachen.de/
  sitecheck check https://www.rwth-aachen.de/ --fetch-mode http --format markdown
  sitecheck check --html-file page.html --regions header,footer`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.StringVar(&checkOpts.fetchMode, "fetch-mode", "browser", "browser, http or auto")
	f.StringVar(&checkOpts.format, "format", "markdown", "report format: json or markdown")
	f.StringVarP(&checkOpts.out, "out", "o", "", "write the report to a file instead of stdout")
	f.StringVar(&checkOpts.htmlFile, "html-file", "", "validate a local HTML file instead of fetching")
	f.StringVar(&checkOpts.regions, "regions", "", "comma-separated regions to check (default: all)")
	f.DurationVar(&checkOpts.timeout, "timeout", 60*time.Second, "overall capture and validation timeout")
	f.IntVar(&checkOpts.width, "viewport-width", 1920, "viewport width the --html-file annotations were taken at")
	f.IntVar(&checkOpts.height, "viewport-height", 1080, "viewport height the --html-file annotations were taken at")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && checkOpts.htmlFile == "" {
		return fmt.Errorf("a URL or --html-file is required")
	}
	if checkOpts.format != "json" && checkOpts.format != "markdown" {
		return fmt.Errorf("unknown format %q", checkOpts.format)
	}
	regions := splitList(checkOpts.regions)
	for _, r := range regions {
		if !region.Known(r) {
			return fmt.Errorf("unknown region %q (known: %v)", r, region.All())
		}
	}

	cfg := loadConfig()
	initLogger(cfg.Log)

	v, err := newValidator(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkOpts.timeout)
	defer cancel()

	var snap *dom.Snapshot
	if checkOpts.htmlFile != "" {
		snap, err = snapshotFromFile(checkOpts.htmlFile, args)
	} else {
		snap, err = snapshotFromURL(ctx, cfg, args[0])
	}
	if err != nil {
		return err
	}
	if !snap.HasLayout() {
		slog.Warn("snapshot has no layout; position, dimension and responsiveness checks will be skipped",
			"url", snap.URL())
	}

	rep, err := v.Run(ctx, snap, regions...)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	out := cmd.OutOrStdout()
	if checkOpts.out != "" {
		f, err := os.Create(checkOpts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", checkOpts.out, err)
		}
		defer f.Close()
		out = f
	}
	if err := writeReport(out, rep, checkOpts.format); err != nil {
		return err
	}

	if !rep.AllPassed() {
		return ErrChecksFailed
	}
	return nil
}

func snapshotFromFile(path string, args []string) (*dom.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pageURL := "file://" + path
	if len(args) > 0 {
		pageURL = args[0]
	}
	return dom.Parse(string(raw), dom.Meta{
		URL:      pageURL,
		Viewport: dom.Size{Width: float64(checkOpts.width), Height: float64(checkOpts.height)},
	})
}

func snapshotFromURL(ctx context.Context, cfg *config.Config, url string) (*dom.Snapshot, error) {
	rt, err := newRuntime(cfg, checkOpts.fetchMode != "http")
	if err != nil {
		return nil, fmt.Errorf("initialise capture: %w", err)
	}
	defer rt.Close()

	fetcher, ok := rt.fetchers[checkOpts.fetchMode]
	if !ok {
		return nil, fmt.Errorf("fetch mode %q is not available (auto needs SITECHECK_MULTI_ENGINE=true)", checkOpts.fetchMode)
	}

	start := time.Now()
	result, err := fetcher.Fetch(ctx, &engine.FetchRequest{URL: url, Timeout: checkOpts.timeout})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	slog.Info("page fetched", "url", result.FinalURL, "engine", result.EngineName,
		"status", result.StatusCode, "took", time.Since(start).Round(time.Millisecond))
	return result.Snapshot()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeReport(w io.Writer, rep *report.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	md, err := rep.Markdown()
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = fmt.Fprintln(w, md)
	return err
}
