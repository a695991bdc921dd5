package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Args is a decoded tool argument object. Numbers arrive as float64.
type Args map[string]any

// DecodeArgs parses raw tool arguments. Empty input and JSON null decode to
// an empty map.
func DecodeArgs(raw json.RawMessage) (Args, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}
	var a Args
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if a == nil {
		a = Args{}
	}
	return a, nil
}

func (a Args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Args) str(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

func (a Args) upper(key string) string {
	return strings.ToUpper(a.str(key))
}

// number returns nil when the key is absent. A present non-numeric value is
// reported as an error so callers can reject it.
func (a Args) number(key string) (*float64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s must be a number, current value: %v", key, v)
	}
	return &f, nil
}

func (a Args) integer(key string) (int64, error) {
	n, err := a.number(key)
	if err != nil || n == nil {
		return 0, err
	}
	if *n != math.Trunc(*n) {
		return 0, fmt.Errorf("%s must be an integer, current value: %v", key, *n)
	}
	return int64(*n), nil
}

func (a Args) boolean(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// optionalDecimal converts an optional numeric argument for order requests.
func (a Args) optionalDecimal(key string) (decimal.NullDecimal, error) {
	n, err := a.number(key)
	if err != nil || n == nil {
		return decimal.NullDecimal{}, err
	}
	if *n <= 0 {
		return decimal.NullDecimal{}, fmt.Errorf("%s must be a positive number, current value: %v", key, *n)
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*n)), nil
}
