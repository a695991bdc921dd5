package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"binance-mcp/internal/tools"

	"github.com/google/jsonschema-go/jsonschema"
)

func TestCatalogueIsValid(t *testing.T) {
	if problems := checkCatalogue(tools.AllTools()); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestCheckCatalogueFindsDefects(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"symbol": {Type: "string"},
		},
		Required: []string{"symbol", "side"},
	}
	descriptors := []tools.Descriptor{
		{Name: "dup", Description: "a", Domain: tools.DomainMarket, InputSchema: schema, Example: map[string]any{"symbol": 5, "side": "BUY"}},
		{Name: "dup", Description: "b", Domain: tools.DomainMarket, InputSchema: &jsonschema.Schema{Type: "object"}},
	}

	joined := make([]string, 0)
	for _, p := range checkCatalogue(descriptors) {
		joined = append(joined, p.String())
	}
	got := strings.Join(joined, "\n")

	for _, want := range []string{
		`dup: required argument "side" is not a declared property`,
		"dup: example rejected by schema",
		"dup: duplicate tool name",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestCheckDescriptorMissingSchema(t *testing.T) {
	problems := checkDescriptor(tools.Descriptor{Name: "bare"})
	if len(problems) != 2 {
		t.Fatalf("expected missing description and schema, got %v", problems)
	}
}

func TestListCommand(t *testing.T) {
	out, err := run(t, "list", "--domain", "analytics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 || !strings.HasPrefix(lines[0], "NAME") {
		t.Fatalf("expected header plus 6 analytics tools, got:\n%s", out)
	}
	if !strings.Contains(out, "binance_calculate_position_size") {
		t.Fatalf("expected position size tool in output:\n%s", out)
	}
}

func TestListCommandJSON(t *testing.T) {
	out, err := run(t, "list", "--json", "--domain", "account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var descriptors []tools.Descriptor
	if err := json.Unmarshal([]byte(out), &descriptors); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if len(descriptors) != 5 {
		t.Fatalf("expected 5 account tools, got %d", len(descriptors))
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ 35 tools valid") {
		t.Fatalf("unexpected output: %s", out)
	}

	orig := catalogueFunc
	catalogueFunc = func() []tools.Descriptor { return []tools.Descriptor{{Name: "broken"}} }
	defer func() { catalogueFunc = orig }()

	out, err = run(t, "validate")
	if err == nil || !strings.Contains(out, "✗ broken: missing input schema") {
		t.Fatalf("expected failure for broken catalogue, got err=%v out=%s", err, out)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
