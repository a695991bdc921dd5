package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"binance-mcp/internal/tools"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// problem is one catalogue defect found by validate.
type problem struct {
	Tool    string
	Message string
}

func (p problem) String() string {
	return p.Tool + ": " + p.Message
}

// checkCatalogue compiles every input schema, validates each example
// against its schema and checks names and required lists.
func checkCatalogue(descriptors []tools.Descriptor) []problem {
	var out []problem
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if _, dup := seen[d.Name]; dup {
			out = append(out, problem{d.Name, "duplicate tool name"})
		}
		seen[d.Name] = struct{}{}
		out = append(out, checkDescriptor(d)...)
	}
	return out
}

func checkDescriptor(d tools.Descriptor) []problem {
	var out []problem
	fail := func(format string, args ...any) {
		out = append(out, problem{d.Name, fmt.Sprintf(format, args...)})
	}

	if d.Description == "" {
		fail("missing description")
	}
	if d.InputSchema == nil {
		fail("missing input schema")
		return out
	}
	if d.InputSchema.Type != "object" {
		fail("input schema type is %q, want object", d.InputSchema.Type)
	}

	for _, name := range d.Required() {
		if _, ok := d.InputSchema.Properties[name]; !ok {
			fail("required argument %q is not a declared property", name)
		}
		if d.Example != nil {
			if _, ok := d.Example[name]; !ok {
				fail("example omits required argument %q", name)
			}
		}
	}

	schema, err := compile(d)
	if err != nil {
		fail("schema does not compile: %v", err)
		return out
	}
	if d.Example == nil {
		return out
	}
	inst, err := toInstance(d.Example)
	if err != nil {
		fail("example is not valid JSON: %v", err)
		return out
	}
	if err := schema.Validate(inst); err != nil {
		fail("example rejected by schema: %v", err)
	}
	return out
}

func compile(d tools.Descriptor) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(d.InputSchema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	url := "tools/" + d.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

func toInstance(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func propertyNames(d tools.Descriptor) []string {
	if d.InputSchema == nil {
		return nil
	}
	names := make([]string, 0, len(d.InputSchema.Properties))
	for name := range d.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
