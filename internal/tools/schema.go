package tools

import (
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	symbolDescription    = "Trading pair symbol such as BTCUSDT, ETHUSDT or BNBUSDT. Lowercase input is converted to uppercase."
	orderIDDescription   = "Order ID returned by the exchange when the order was placed"
	startTimeDescription = "Start time in epoch milliseconds"
	endTimeDescription   = "End time in epoch milliseconds"
	minEpochMillis       = 1_000_000_000_000
)

type props map[string]*jsonschema.Schema

func object(properties props, required ...string) *jsonschema.Schema {
	if required == nil {
		required = []string{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func enumProp(desc string, values ...string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Description: desc, Enum: enum}
}

func numberProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc}
}

func integerProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

func boolProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

func atLeast(s *jsonschema.Schema, min float64) *jsonschema.Schema {
	s.Minimum = &min
	return s
}

func between(s *jsonschema.Schema, min, max float64) *jsonschema.Schema {
	s.Minimum = &min
	s.Maximum = &max
	return s
}

func intEnum(s *jsonschema.Schema, values ...int) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	s.Enum = enum
	return s
}

func symbolProp() *jsonschema.Schema { return stringProp(symbolDescription) }

func historyProps() props {
	return props{
		"symbol":    symbolProp(),
		"orderId":   atLeast(integerProp("Return orders starting from this order ID"), 1),
		"startTime": atLeast(integerProp(startTimeDescription), minEpochMillis),
		"endTime":   atLeast(integerProp(endTimeDescription), minEpochMillis),
		"limit":     between(integerProp("Number of records to return, 1-1000 (default 500)"), 1, 1000),
	}
}

func tradeHistoryProps() props {
	return props{
		"symbol":    symbolProp(),
		"startTime": atLeast(integerProp(startTimeDescription), minEpochMillis),
		"endTime":   atLeast(integerProp(endTimeDescription), minEpochMillis),
		"fromId":    atLeast(integerProp("Return trades starting from this trade ID"), 1),
		"limit":     between(integerProp("Number of records to return, 1-1000 (default 500)"), 1, 1000),
	}
}
