package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	errx "github.com/health-assistant-core/server/internal/core/error"
)

// Registry holds the tool catalogue in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools []tool.InvokableTool
	infos []*schema.ToolInfo
	index map[string]int
}

// Descriptor is the name/description pair used when rendering prompts.
type Descriptor struct {
	Name        string
	Description string
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register adds t to the catalogue. Names must be unique. The stored tool is
// guarded so that a failing invocation yields an observation instead of an error.
func (r *Registry) Register(ctx context.Context, t tool.InvokableTool) error {
	info, err := t.Info(ctx)
	if err != nil {
		return fmt.Errorf("tool info: %w", err)
	}
	name := strings.TrimSpace(info.Name)
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.index[name] = len(r.tools)
	r.tools = append(r.tools, guard(name, t))
	r.infos = append(r.infos, info)
	return nil
}

// Lookup returns the tool registered under name or errx.ErrToolNotFound.
func (r *Registry) Lookup(name string) (tool.InvokableTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errx.ErrToolNotFound, name)
	}
	return r.tools[i], nil
}

// List returns the tools in registration order.
func (r *Registry) List() []tool.InvokableTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.InvokableTool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Infos returns the model-facing tool schemas in registration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.ToolInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

// Catalogue returns name/description pairs in registration order.
func (r *Registry) Catalogue() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.infos))
	for _, info := range r.infos {
		out = append(out, Descriptor{Name: info.Name, Description: info.Desc})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
