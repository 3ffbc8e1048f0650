package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

// Registry maps tool names to bound tool declarations. Callers register
// tools at startup and pass List() into generate calls.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]llm.Tool
	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]llm.Tool),
		logger: logger.With().Str("component", "tool_registry").Logger(),
	}
}

// Register adds a tool to the registry. Registering a name twice replaces
// the earlier entry.
func (r *Registry) Register(tool llm.Tool) error {
	if tool.Name == "" {
		return llm.NewConfigurationError("tool name is required")
	}
	if tool.Function == nil {
		return llm.NewConfigurationError(fmt.Sprintf("tool %s has no implementation", tool.Name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug().Str("name", tool.Name).Msg("Registering tool")
	r.tools[tool.Name] = tool
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (llm.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in name order.
func (r *Registry) List() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]llm.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
