// Package tools defines the MCP tool surface over the MyChemInfo API. Each
// tool is a name, a JSON schema for its arguments, and a handler that turns
// decoded arguments into API calls and reshapes the response.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

// Client is the API surface tool handlers depend on. *client.Client
// satisfies it; tests substitute a stub.
type Client interface {
	Get(ctx context.Context, endpoint string, params client.Params) (any, error)
	Post(ctx context.Context, endpoint string, body any) (any, error)
}

// Handler executes a tool call. Results are either a JSON-marshalable value
// or a plain string for tools that render their own output.
type Handler func(ctx context.Context, c Client, args map[string]any) (any, error)

// Tool describes a single callable tool.
type Tool struct {
	Name        string
	Domain      string
	Description string
	Schema      json.RawMessage
	Handler     Handler
}

// ErrUnknownTool is returned by Call for names that are not registered.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// Registry holds all registered tools, preserving registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry populated with the full tool surface.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	registerQueryTools(r)
	registerAnnotationTools(r)
	registerBatchTools(r)
	registerStructureTools(r)
	registerDrugTools(r)
	registerADMETTools(r)
	registerPatentTools(r)
	registerClinicalTools(r)
	registerMetadataTools(r)
	registerExportTools(r)
	registerMappingTools(r)
	registerBioactivityTools(r)
	registerBiologicalContextTools(r)
	return r
}

// Register adds a tool. Duplicate names panic; the registry is assembled
// once at startup from static definitions.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate tool %q", t.Name))
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Call dispatches a tool call by name.
func (r *Registry) Call(ctx context.Context, c Client, name string, args map[string]any) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Handler(ctx, c, args)
}
