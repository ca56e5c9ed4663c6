package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
)

func main() {
	apiURL := os.Getenv("SITECHECK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITECHECK_API_KEY")

	s := server.NewMCPServer(
		"sitecheck",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	validatePageTool := mcp.NewTool("validate_page",
		mcp.WithDescription("Render a web page in a headless browser and check its structure: header, navigation, footer, news and events sections, search, contact details, image alt text, forms. Returns a Markdown report listing every passed, failed and skipped check."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to validate"),
		),
		mcp.WithArray("regions",
			mcp.Description("Regions to check (default: all). One of: "+strings.Join(region.All(), ", ")),
			mcp.WithStringItems(mcp.Enum(region.All()...)),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'browser' (default, full layout checks), 'http' (fast, layout checks skipped) or 'auto'"),
			mcp.Enum("browser", "http", "auto"),
		),
	)
	s.AddTool(validatePageTool, handleValidatePage(apiURL, apiKey))

	validateHTMLTool := mcp.NewTool("validate_html",
		mcp.WithDescription("Check caller-supplied HTML markup. Layout checks (position, size, visibility) are skipped unless the markup carries data-sc-* annotations."),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The HTML document to validate"),
		),
		mcp.WithString("url",
			mcp.Description("The address the markup came from, used in the report"),
		),
		mcp.WithArray("regions",
			mcp.Description("Regions to check (default: all)"),
			mcp.WithStringItems(mcp.Enum(region.All()...)),
		),
	)
	s.AddTool(validateHTMLTool, handleValidateHTML(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the sitecheck API and decodes the response.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) (*models.ValidateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out models.ValidateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

// toolResult renders a validate response. A failed verdict is still a
// successful tool call; only transport and capture errors are tool errors.
func toolResult(resp *models.ValidateResponse) *mcp.CallToolResult {
	if !resp.Success {
		errMsg := "validation failed to run"
		if resp.Error != nil {
			errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
		}
		return mcp.NewToolResultError(errMsg)
	}

	verdict := "PASSED"
	if !resp.Passed {
		verdict = "FAILED"
	}
	layout := "rendered"
	if !resp.Layout {
		layout = "unavailable (geometry checks skipped)"
	}
	header := fmt.Sprintf("Verdict: %s\nEngine: %s\nLayout: %s\nTook: %dms\n\n", verdict, resp.EngineUsed, layout, resp.Timing.TotalMs)
	return mcp.NewToolResultText(header + resp.Markdown)
}

func handleValidatePage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 150 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]any{
			"url":    url,
			"format": "markdown",
		}
		if regions := request.GetStringSlice("regions", nil); len(regions) > 0 {
			payload["regions"] = regions
		}
		if mode := request.GetString("fetch_mode", ""); mode != "" {
			payload["fetch_mode"] = mode
		}

		resp, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/validate", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(resp), nil
	}
}

func handleValidateHTML(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		html, err := request.RequireString("html")
		if err != nil {
			return mcp.NewToolResultError("html is required"), nil
		}

		payload := map[string]any{
			"html":   html,
			"format": "markdown",
		}
		if url := request.GetString("url", ""); url != "" {
			payload["url"] = url
		}
		if regions := request.GetStringSlice("regions", nil); len(regions) > 0 {
			payload["regions"] = regions
		}

		resp, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/validate/html", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(resp), nil
	}
}
