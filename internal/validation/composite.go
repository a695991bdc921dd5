package validation

import (
	"fmt"
	"strings"
)

// Field pairs a parameter name with its already computed outcome.
type Field struct {
	Name    string
	Outcome Outcome
}

func Check(name string, o Outcome) Field {
	return Field{Name: name, Outcome: o}
}

// All merges field outcomes in order. Every field is reported; a failure in
// one does not hide the others.
func All(fields ...Field) Outcome {
	var errs, warnings, suggestions []string
	values := make(map[string]any, len(fields))

	for _, f := range fields {
		if !f.Outcome.Valid {
			errs = append(errs, f.Name+": "+f.Outcome.Error)
			suggestions = append(suggestions, f.Outcome.Suggestions...)
			continue
		}
		values[f.Name] = f.Outcome.Data
		warnings = append(warnings, f.Outcome.Warnings...)
	}

	if len(errs) > 0 {
		return Outcome{Error: strings.Join(errs, "\n"), Suggestions: suggestions}
	}
	return Outcome{Valid: true, Data: values, Warnings: warnings}
}

type Kind int

const (
	KindAny Kind = iota
	KindSymbol
	KindPrice
	KindQuantity
	KindLeverage
	KindOrderType
	KindSide
	KindInterval
)

// Rule maps one parameter name to the validator applied to it.
type Rule struct {
	Key      string
	Kind     Kind
	Required bool
}

// Validate applies rules to a decoded argument map. Values arrive as JSON
// decodes them: strings for text fields and float64 for numbers.
func Validate(params map[string]any, rules []Rule) Outcome {
	fields := make([]Field, 0, len(rules))
	for _, r := range rules {
		fields = append(fields, Check(r.Key, applyRule(params[r.Key], r)))
	}
	return All(fields...)
}

func applyRule(value any, r Rule) Outcome {
	switch r.Kind {
	case KindSymbol:
		return Symbol(asString(value), r.Required)
	case KindSide:
		return Side(asString(value), r.Required)
	case KindOrderType:
		return OrderType(asString(value))
	case KindInterval:
		return Interval(asString(value))
	case KindPrice:
		n, ok := asNumber(value)
		if !ok {
			return notANumber("Price", value)
		}
		return Price(n, r.Required)
	case KindQuantity:
		n, ok := asNumber(value)
		if !ok {
			return notANumber("Quantity", value)
		}
		return Quantity(n, r.Required)
	case KindLeverage:
		n, ok := asNumber(value)
		if !ok {
			return notANumber("Leverage", value)
		}
		return Leverage(n)
	default:
		return pass(value)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asNumber returns (nil, true) for an absent value and (nil, false) for a
// present value that is not numeric.
func asNumber(v any) (*float64, bool) {
	switch n := v.(type) {
	case nil:
		return nil, true
	case float64:
		return &n, true
	case int:
		f := float64(n)
		return &f, true
	case int64:
		f := float64(n)
		return &f, true
	default:
		return nil, false
	}
}

func notANumber(label string, v any) Outcome {
	return fail(fmt.Sprintf("%s must be a positive number, current value: %v", label, v),
		"Pass the value as a JSON number",
	)
}
