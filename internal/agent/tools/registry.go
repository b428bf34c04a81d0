// Package tools provides the framework for defining, registering, and
// executing the callable operations exposed to the language model, plus the
// interview-domain tools themselves.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"

	"interviewlab/internal/logger"
)

// Registry manages the collection of available tools.
// It provides thread-safe registration, retrieval, and execution, and keeps
// registration order so tool listings are deterministic.
type Registry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty tool registry.
// Use Register to add tools to it.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. If a tool with the same name already
// exists it is replaced in place; last registration wins.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		logger.Warnf("Replacing existing tool: %s", name)
	} else {
		r.order = append(r.order, name)
	}

	r.tools[name] = tool
	logger.AgentDebugf("Registered tool: %s", name)
}

// RegisterMany adds each tool in turn under Register's semantics.
func (r *Registry) RegisterMany(tools []Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get returns a tool by name, or an error wrapping ErrNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return tool, nil
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}

	return tools
}

// OpenAITools converts all registered tools to the wire format advertised to
// the model, in registration order.
func (r *Registry) OpenAITools() []openai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].ToOpenAITool())
	}

	return tools
}

// Execute runs a named tool with the provided JSON argument payload. Arguments
// are validated against the tool's parameter schema before execution; a
// validation or execution failure is returned as an *InvocationError, while an
// unknown name wraps ErrNotFound.
func (r *Registry) Execute(ctx context.Context, name string, args string) (string, error) {
	tool, err := r.Get(name)
	if err != nil {
		return "", err
	}

	if err := ValidateArgs(args, tool.Parameters()); err != nil {
		return "", &InvocationError{Tool: name, Err: err}
	}

	logger.AgentDebugf("Executing tool: %s with args: %s", name, args)
	result, err := tool.Execute(ctx, args)
	if err != nil {
		logger.Errorf("Tool execution error: %s: %v", name, err)
		return "", &InvocationError{Tool: name, Err: err}
	}

	return result, nil
}
