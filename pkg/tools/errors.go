package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mapmcp/mapmcp/pkg/osm"
)

// ErrorKind classifies tool failures in the result envelope. The kinds
// are stable protocol values, agents branch on them to decide whether
// to retry, rephrase, or give up.
type ErrorKind string

const (
	ErrUnknownTool    ErrorKind = "unknown_tool"
	ErrValidation     ErrorKind = "validation"
	ErrTimeout        ErrorKind = "timeout"
	ErrNetwork        ErrorKind = "network"
	ErrUpstreamStatus ErrorKind = "upstream_status"
	ErrBadPayload     ErrorKind = "bad_payload"
	ErrInternal       ErrorKind = "internal"
)

// ToolError is what a tool invocation reports on failure. Message must
// be safe to show to an end user; internal details stay in the logs.
type ToolError struct {
	Kind    ErrorKind
	Detail  string // validation code or upstream service name
	Message string
}

func (e *ToolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Detail, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// fromHTTPError maps a service client failure onto the envelope
// taxonomy with a message that names the service but not the transport
// internals.
func fromHTTPError(err *osm.HTTPError) *ToolError {
	switch err.Kind {
	case osm.KindTimeout:
		return &ToolError{
			Kind:    ErrTimeout,
			Detail:  err.Service,
			Message: fmt.Sprintf("%s did not respond in time", err.Service),
		}
	case osm.KindUpstreamStatus:
		return &ToolError{
			Kind:    ErrUpstreamStatus,
			Detail:  err.Service,
			Message: err.Message,
		}
	case osm.KindBadPayload:
		return &ToolError{
			Kind:    ErrBadPayload,
			Detail:  err.Service,
			Message: fmt.Sprintf("%s returned an unreadable response", err.Service),
		}
	default:
		return &ToolError{
			Kind:    ErrNetwork,
			Detail:  err.Service,
			Message: fmt.Sprintf("could not reach %s", err.Service),
		}
	}
}

// fromValidationError wraps a parameter violation for the envelope.
func fromValidationError(verr *ValidationError) *ToolError {
	return &ToolError{Kind: ErrValidation, Detail: verr.Code, Message: verr.Error()}
}

// envelope is the wire shape every tool result uses. Success carries
// data; failure carries kind, detail, and message.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// renderOK marshals a success envelope around the handler's payload.
func renderOK(data any) (string, error) {
	buf, err := json.Marshal(envelope{Status: "ok", Data: data})
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// renderError marshals an error envelope. The inputs are plain strings,
// so marshaling cannot fail.
func renderError(terr *ToolError) string {
	buf, _ := json.Marshal(envelope{
		Status:  "error",
		Kind:    string(terr.Kind),
		Detail:  terr.Detail,
		Message: terr.Message,
	})
	return string(buf)
}
