// Command benchmark measures /api/v1/validate latency per fetch mode
// against a running sitecheck server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/report"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "sitecheck API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL and mode for averaging")
	modes  = flag.String("modes", "http,browser", "comma-separated fetch modes to compare")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Pages with a conventional university layout.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Home", "https://www.rwth-aachen.de/"},
	{"News", "https://www.rwth-aachen.de/cms/root/Die-RWTH/Aktuell/~eky/Pressemitteilungen/"},
	{"Studies", "https://www.rwth-aachen.de/cms/root/Studium/~ef/Studienangebot/"},
	{"Contact", "https://www.rwth-aachen.de/cms/root/Die-RWTH/~ej/Kontakt/"},
}

type runResult struct {
	Run          int    `json:"run"`
	TotalMs      int64  `json:"total_ms"`
	CaptureMs    int64  `json:"capture_ms"`
	ValidationMs int64  `json:"validation_ms"`
	Engine       string `json:"engine"`
	StatusCode   int    `json:"status_code"`
	Checks       int    `json:"checks"`
	Failed       int    `json:"failed"`
	Skipped      int    `json:"skipped"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type averages struct {
	TotalMs      float64 `json:"total_ms"`
	CaptureMs    float64 `json:"capture_ms"`
	ValidationMs float64 `json:"validation_ms"`
	Failed       float64 `json:"failed"`
	Skipped      float64 `json:"skipped"`
}

type caseResult struct {
	URL      string      `json:"url"`
	Label    string      `json:"label"`
	Mode     string      `json:"mode"`
	Runs     []runResult `json:"runs"`
	Averages *averages   `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	RunsPerURL int          `json:"runs_per_url"`
	Results    []caseResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== sitecheck benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Modes:     %s\n", *modes)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the server is running (sitecheck serve)\n")
		os.Exit(1)
	}

	out := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 150 * time.Second}
	for _, t := range testURLs {
		for _, mode := range strings.Split(*modes, ",") {
			mode = strings.TrimSpace(mode)
			fmt.Printf("Benchmarking [%s/%s] %s ...\n", t.Label, mode, t.URL)
			cr := caseResult{URL: t.URL, Label: t.Label, Mode: mode}

			for i := 1; i <= *runs; i++ {
				fmt.Printf("  Run %d/%d ... ", i, *runs)
				rr := validateOnce(client, t.URL, mode, i)
				if rr.Success {
					fmt.Printf("OK  %dms  %d/%d failed\n", rr.TotalMs, rr.Failed, rr.Checks)
				} else {
					fmt.Printf("ERROR: %s\n", rr.Error)
				}
				cr.Runs = append(cr.Runs, rr)
			}

			cr.Averages = computeAverages(cr.Runs)
			out.Results = append(out.Results, cr)
		}
		fmt.Println()
	}

	printTable(out.Results)

	if err := writeJSON(*output, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func validateOnce(client *http.Client, url, mode string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.ValidateRequest{URL: url, FetchMode: mode, Timeout: 90})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/validate", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var vr models.ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	if !vr.Success {
		if vr.Error != nil {
			rr.Error = fmt.Sprintf("[%s] %s", vr.Error.Code, vr.Error.Message)
		}
		return rr
	}

	var rep report.Report
	if err := json.Unmarshal(vr.Report, &rep); err != nil {
		rr.Error = fmt.Sprintf("decode report: %v", err)
		return rr
	}
	sum := rep.Summary()

	rr.Success = true
	rr.TotalMs = vr.Timing.TotalMs
	rr.CaptureMs = vr.Timing.CaptureMs
	rr.ValidationMs = vr.Timing.ValidationMs
	rr.Engine = vr.EngineUsed
	rr.StatusCode = vr.StatusCode
	rr.Checks = sum.Total
	rr.Failed = sum.Failed
	rr.Skipped = sum.Skipped
	return rr
}

func computeAverages(runs []runResult) *averages {
	var n float64
	var avg averages
	for _, r := range runs {
		if !r.Success {
			continue
		}
		n++
		avg.TotalMs += float64(r.TotalMs)
		avg.CaptureMs += float64(r.CaptureMs)
		avg.ValidationMs += float64(r.ValidationMs)
		avg.Failed += float64(r.Failed)
		avg.Skipped += float64(r.Skipped)
	}
	if n == 0 {
		return nil
	}
	avg.TotalMs /= n
	avg.CaptureMs /= n
	avg.ValidationMs /= n
	avg.Failed /= n
	avg.Skipped /= n
	return &avg
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 95))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Page\tMode\tAvg Total\tCapture\tValidation\tFailed\tSkipped\n")
	fmt.Fprintf(w, "────\t────\t─────────\t───────\t──────────\t──────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%s\tERROR\t-\t-\t-\t-\n", r.Label, r.Mode)
			continue
		}
		a := r.Averages
		fmt.Fprintf(w, "%s\t%s\t%dms\t%dms\t%dms\t%.1f\t%.1f\n",
			r.Label, r.Mode,
			int64(a.TotalMs), int64(a.CaptureMs), int64(a.ValidationMs),
			a.Failed, a.Skipped,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 95))
}

func writeJSON(path string, r benchmarkReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
