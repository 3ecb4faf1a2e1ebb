package tools

import (
	"context"
	"net/http"

	"github.com/cloudwego/eino/components/tool"

	"github.com/health-assistant-core/server/internal/agent/model"
)

// Options configures the default catalogue.
type Options struct {
	Logs       model.LogRepository
	Search     model.SearchConfig
	HTTPClient *http.Client
}

// NewDefaultRegistry registers the built-in tools. web_search is added only
// when a search API key is configured.
func NewDefaultRegistry(ctx context.Context, opts Options) (*Registry, error) {
	builtins := []tool.InvokableTool{
		NewBMITool(),
		NewBMRTool(),
		NewCalorieTool(),
		(&LogSummaryTool{Logs: opts.Logs}).Tool(),
	}
	if opts.Search.Enabled() {
		builtins = append(builtins, NewWebSearchTool(opts.Search, opts.HTTPClient).Tool())
	}

	r := NewRegistry()
	for _, t := range builtins {
		if err := r.Register(ctx, t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
