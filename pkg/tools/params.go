// Package tools implements the map tool registry and the tools it
// serves: Nominatim geocoding, Overpass POI search, and OSRM routing.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mapmcp/mapmcp/pkg/geo"
)

// ParamType enumerates the value types a tool parameter can declare.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeFloat  ParamType = "float"
	TypeInt    ParamType = "int"
	TypeEnum   ParamType = "enum"
)

// Coordinate axis markers for ParamSpec.Coord. A coordinate parameter
// gets the axis range check and the invalid_coordinate error code
// instead of the generic out_of_range.
const (
	CoordLat = "lat"
	CoordLon = "lon"
)

// ParamSpec declares one tool parameter: its type, whether the caller
// must provide it, and the constraints checked before the handler runs.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any      // injected when the argument is absent
	Min, Max    *float64 // numeric bounds, inclusive
	Enum        []string // allowed values for TypeEnum, first is canonical casing
	Coord       string   // "", CoordLat, or CoordLon
}

// Validation error codes.
const (
	CodeMissingParameter  = "missing_parameter"
	CodeInvalidNumber     = "invalid_number"
	CodeInvalidCoordinate = "invalid_coordinate"
	CodeOutOfRange        = "out_of_range"
	CodeInvalidEnum       = "invalid_enum"
)

// ValidationError reports the first constraint an argument set violated.
type ValidationError struct {
	Param   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Message)
}

// Args holds validated, coerced arguments keyed by parameter name.
// Values are stored canonically: string for TypeString and TypeEnum,
// float64 for TypeFloat, int for TypeInt.
type Args map[string]any

// String returns a string argument, or "" if absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Float returns a float argument, or 0 if absent.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Int returns an int argument, or 0 if absent.
func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

// ValidateArgs checks raw arguments against the parameter specs and
// returns the coerced set. Specs are checked in declaration order and
// the first violation wins. Arguments not named by any spec are
// ignored. Numeric arguments arriving as strings are parsed, since some
// MCP clients send every value as a string.
func ValidateArgs(specs []ParamSpec, raw map[string]any) (Args, *ValidationError) {
	args := make(Args, len(specs))

	for _, spec := range specs {
		value, present := raw[spec.Name]
		if !present || value == nil {
			if spec.Required {
				return nil, &ValidationError{
					Param:   spec.Name,
					Code:    CodeMissingParameter,
					Message: "required parameter is missing",
				}
			}
			if spec.Default != nil {
				args[spec.Name] = spec.Default
			}
			continue
		}

		coerced, verr := coerceValue(spec, value)
		if verr != nil {
			return nil, verr
		}
		args[spec.Name] = coerced
	}

	return args, nil
}

func coerceValue(spec ParamSpec, value any) (any, *ValidationError) {
	switch spec.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprintf("%v", value)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if spec.Required {
				return nil, &ValidationError{
					Param:   spec.Name,
					Code:    CodeMissingParameter,
					Message: "required parameter is empty",
				}
			}
			// Empty optional strings fall back to the default.
			if spec.Default != nil {
				return spec.Default, nil
			}
		}
		return s, nil

	case TypeFloat:
		f, verr := toFloat(spec, value)
		if verr != nil {
			return nil, verr
		}
		if verr := checkRange(spec, f); verr != nil {
			return nil, verr
		}
		return f, nil

	case TypeInt:
		f, verr := toFloat(spec, value)
		if verr != nil {
			return nil, verr
		}
		if f != math.Trunc(f) {
			return nil, &ValidationError{
				Param:   spec.Name,
				Code:    CodeInvalidNumber,
				Message: fmt.Sprintf("expected an integer, got %v", value),
			}
		}
		if verr := checkRange(spec, f); verr != nil {
			return nil, verr
		}
		return int(f), nil

	case TypeEnum:
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprintf("%v", value)
		}
		s = strings.TrimSpace(s)
		if s == "" && !spec.Required && spec.Default != nil {
			return spec.Default, nil
		}
		for _, allowed := range spec.Enum {
			if strings.EqualFold(s, allowed) {
				return allowed, nil
			}
		}
		return nil, &ValidationError{
			Param:   spec.Name,
			Code:    CodeInvalidEnum,
			Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(spec.Enum, ", "), s),
		}

	default:
		return nil, &ValidationError{
			Param:   spec.Name,
			Code:    CodeInvalidNumber,
			Message: fmt.Sprintf("unsupported parameter type %q", spec.Type),
		}
	}
}

// toFloat accepts JSON numbers, Go integer types, and numeric strings.
func toFloat(spec ParamSpec, value any) (float64, *ValidationError) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, invalidNumber(spec, value)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalidNumber(spec, value)
		}
		f = parsed
	default:
		return 0, invalidNumber(spec, value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		if spec.Coord != "" {
			return 0, &ValidationError{
				Param:   spec.Name,
				Code:    CodeInvalidCoordinate,
				Message: "coordinate must be a finite number",
			}
		}
		return 0, invalidNumber(spec, value)
	}
	return f, nil
}

func invalidNumber(spec ParamSpec, value any) *ValidationError {
	if spec.Coord != "" {
		return &ValidationError{
			Param:   spec.Name,
			Code:    CodeInvalidCoordinate,
			Message: fmt.Sprintf("expected a numeric coordinate, got %v", value),
		}
	}
	return &ValidationError{
		Param:   spec.Name,
		Code:    CodeInvalidNumber,
		Message: fmt.Sprintf("expected a number, got %v", value),
	}
}

// checkRange applies the axis range for coordinates, otherwise the
// spec's Min/Max bounds.
func checkRange(spec ParamSpec, f float64) *ValidationError {
	switch spec.Coord {
	case CoordLat:
		if err := geo.ValidateLat(f); err != nil {
			return &ValidationError{
				Param:   spec.Name,
				Code:    CodeInvalidCoordinate,
				Message: err.Error(),
			}
		}
		return nil
	case CoordLon:
		if err := geo.ValidateLon(f); err != nil {
			return &ValidationError{
				Param:   spec.Name,
				Code:    CodeInvalidCoordinate,
				Message: err.Error(),
			}
		}
		return nil
	}

	if spec.Min != nil && f < *spec.Min {
		return &ValidationError{
			Param:   spec.Name,
			Code:    CodeOutOfRange,
			Message: fmt.Sprintf("must be at least %g, got %g", *spec.Min, f),
		}
	}
	if spec.Max != nil && f > *spec.Max {
		return &ValidationError{
			Param:   spec.Name,
			Code:    CodeOutOfRange,
			Message: fmt.Sprintf("must be at most %g, got %g", *spec.Max, f),
		}
	}
	return nil
}

// mcpOptions renders a spec as mcp-go property options for the tool's
// input schema. Bounds are spelled out in the description since the
// dispatcher enforces them either way.
func (spec ParamSpec) mcpOptions() []mcp.PropertyOption {
	desc := spec.Description
	if spec.Min != nil && spec.Max != nil {
		desc = fmt.Sprintf("%s (%g to %g)", desc, *spec.Min, *spec.Max)
	}

	opts := []mcp.PropertyOption{mcp.Description(desc)}
	if spec.Required {
		opts = append(opts, mcp.Required())
	}

	switch spec.Type {
	case TypeString:
		if s, ok := spec.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(s))
		}
	case TypeFloat:
		if f, ok := spec.Default.(float64); ok {
			opts = append(opts, mcp.DefaultNumber(f))
		}
	case TypeInt:
		if i, ok := spec.Default.(int); ok {
			opts = append(opts, mcp.DefaultNumber(float64(i)))
		}
	case TypeEnum:
		opts = append(opts, mcp.Enum(spec.Enum...))
		if s, ok := spec.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(s))
		}
	}
	return opts
}

// floatPtr is a convenience for ParamSpec bounds.
func floatPtr(f float64) *float64 {
	return &f
}
