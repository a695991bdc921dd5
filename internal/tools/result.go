package tools

import (
	"errors"

	"binance-mcp/internal/gateway"
	"binance-mcp/internal/validation"
)

// ErrorKind classifies a failed Result. It is not part of the wire envelope.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindValidation  ErrorKind = "validation"
	KindExchange    ErrorKind = "exchange"
	KindGateway     ErrorKind = "gateway"
	KindUnknownTool ErrorKind = "unknown_tool"
	KindUnexpected  ErrorKind = "unexpected"
)

// UnexpectedHint is appended to failures nobody anticipated.
const UnexpectedHint = "💡 Check your network connection and API credentials, then try again later."

// Result is the envelope every tool returns: Data on success, Error otherwise.
type Result struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"-"`
}

func ok(data any) Result {
	return Result{Success: true, Data: data}
}

func failure(kind ErrorKind, msg string) Result {
	return Result{Error: msg, Kind: kind}
}

func invalid(o validation.Outcome) Result {
	return failure(KindValidation, validation.FormatError(o))
}

func invalidf(msg string, suggestions ...string) Result {
	return invalid(validation.Outcome{Error: msg, Suggestions: suggestions})
}

func unexpected(msg string) Result {
	return failure(KindUnexpected, msg+"\n\n"+UnexpectedHint)
}

// fromError converts a gateway error into a failed Result.
func fromError(err error) Result {
	kind := Classify(err)
	if kind == KindUnexpected {
		return unexpected(gateway.FormatError(err))
	}
	return failure(kind, gateway.FormatError(err))
}

// Classify maps an error returned by the gateway onto an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case gateway.IsAPIError(err):
		return KindExchange
	case gateway.IsTransportError(err), errors.Is(err, gateway.ErrMissingCredentials):
		return KindGateway
	default:
		return KindUnexpected
	}
}
