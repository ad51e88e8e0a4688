// Package tool defines the callable tools, their input schemas and their
// deterministic execution logic.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/region"
)

// Property is one field of a tool input schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Schema is a structurally-typed, single-level object schema.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Definition declares a callable tool. Execute is synchronous from the
// loop's perspective and side-effect-free on conversation state: it only
// returns data, the loop writes the result back into the invocation part.
type Definition struct {
	Name        string
	Description string
	InputSchema Schema
	Execute     func(ctx context.Context, input json.RawMessage) (any, error)
}

// InputSchemaError reports malformed tool-call arguments. It is surfaced
// to the model as a tool error result, never fatal to the session.
type InputSchemaError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *InputSchemaError) Error() string {
	return fmt.Sprintf("tool %s: invalid input field %q: %s", e.Tool, e.Field, e.Reason)
}

// Validate checks raw input against the schema.
func (s Schema) Validate(toolName string, input json.RawMessage) error {
	var fields map[string]any
	if err := json.Unmarshal(input, &fields); err != nil {
		return &InputSchemaError{Tool: toolName, Field: "", Reason: "input is not a JSON object"}
	}

	for _, req := range s.Required {
		if v, ok := fields[req]; !ok || v == nil {
			return &InputSchemaError{Tool: toolName, Field: req, Reason: "required field missing"}
		}
	}

	for name, value := range fields {
		prop, declared := s.Properties[name]
		if !declared || value == nil {
			continue
		}
		if err := checkType(value, prop); err != "" {
			return &InputSchemaError{Tool: toolName, Field: name, Reason: err}
		}
	}

	return nil
}

func checkType(value any, prop Property) string {
	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return "expected string"
		}
		if len(prop.Enum) > 0 {
			for _, e := range prop.Enum {
				if s == e {
					return ""
				}
			}
			return fmt.Sprintf("value %q not in %v", s, prop.Enum)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return "expected number"
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return "expected integer"
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return "expected boolean"
		}
	}
	return ""
}

// Registry holds the tool definitions and executes calls after schema
// validation.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry builds the registry with the qualification tool set bound
// to the given neighborhood catalog.
func NewRegistry(catalog *region.Catalog) *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.register(RequestLocation())
	r.register(ValidateLocation(catalog))
	r.register(SubmitQualification(catalog))
	return r
}

func (r *Registry) register(d Definition) {
	r.defs[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Get returns a definition by name.
func (r *Registry) Get(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Enabled returns the definitions active for the given settings, in
// registration order. requestLocation is always on; the guardrail and
// submission tools follow the session toggles.
func (r *Registry) Enabled(settings model.Settings) []Definition {
	var out []Definition
	for _, name := range r.order {
		switch name {
		case NameValidateLocation:
			if !settings.EnableValidateLocation {
				continue
			}
		case NameSubmitQualification:
			if !settings.EnableSubmitQualification {
				continue
			}
		}
		out = append(out, r.defs[name])
	}
	return out
}

// Execute validates input against the tool's schema and runs it, returning
// the marshaled output.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	if err := def.InputSchema.Validate(name, input); err != nil {
		return nil, err
	}

	out, err := def.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("tool %s: marshal output: %w", name, err)
	}
	return data, nil
}
