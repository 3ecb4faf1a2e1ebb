package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
)

// ===================================
// Web Search Tool (Tavily)
// ===================================

const maxSearchResults = 10

type WebSearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// WebSearchTool queries the Tavily search API. It never writes anything.
type WebSearchTool struct {
	cfg    model.SearchConfig
	client *http.Client
}

// NewWebSearchTool uses an otelhttp instrumented client when client is nil.
func NewWebSearchTool(cfg model.SearchConfig, client *http.Client) *WebSearchTool {
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		}
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	return &WebSearchTool{cfg: cfg, client: client}
}

func (t *WebSearchTool) search(ctx context.Context, in *WebSearchInput) (string, error) {
	ctx, span := tracer.Start(ctx, "web search")
	defer span.End()

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", errx.Invalid("query is required")
	}
	limit := in.MaxResults
	if limit <= 0 {
		limit = t.cfg.MaxResults
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}
	span.SetAttributes(attribute.String("search.query", query), attribute.Int("search.max_results", limit))

	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: limit, SearchDepth: "basic", IncludeAnswer: true})
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}
	url := strings.TrimRight(t.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	var out tavilyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	return formatSearch(query, out), nil
}

func formatSearch(query string, r tavilyResponse) string {
	if len(r.Results) == 0 && r.Answer == "" {
		return fmt.Sprintf("No web results found for %q.", query)
	}
	var b strings.Builder
	if r.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n", r.Answer)
	}
	for i, res := range r.Results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n", i+1, res.Title, res.URL, res.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t *WebSearchTool) Tool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: WebSearchName,
			Desc: "Searches the web for up-to-date health, nutrition and fitness information. Use only when the answer needs facts that are not in the conversation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Search query in natural language",
					Required: true,
				},
				"max_results": {
					Type: schema.Integer,
					Desc: "Maximum number of results to return (default 3, max 10)",
				},
			}),
		},
		t.search,
	)
}
