package structured

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/BaSui01/tripflow/types"
)

// Registry maps response types to their JSON Schemas and decodes specialist
// payloads into typed travel results. Validation is all-or-nothing: any
// missing field, type mismatch, or out-of-range value rejects the whole
// payload. The registry is a plain value with no package-level state, so
// callers own its lifecycle.
type Registry struct {
	validator *DefaultValidator
	schemas   map[types.ResponseType]*JSONSchema
}

// NewRegistry creates a registry holding the schemas for all three travel
// result types.
func NewRegistry() *Registry {
	return &Registry{
		validator: NewValidator(),
		schemas: map[types.ResponseType]*JSONSchema{
			types.ResponseTypeFlight:     FlightSchema(),
			types.ResponseTypeHotel:      HotelSchema(),
			types.ResponseTypeTravelPlan: TravelPlanSchema(),
		},
	}
}

// Schema returns the schema registered for a response type.
func (r *Registry) Schema(rt types.ResponseType) (*JSONSchema, bool) {
	schema, ok := r.schemas[rt]
	return schema, ok
}

// SchemaJSON returns the indented JSON encoding of a registered schema,
// suitable for embedding in a prompt.
func (r *Registry) SchemaJSON(rt types.ResponseType) (string, error) {
	schema, ok := r.schemas[rt]
	if !ok {
		return "", fmt.Errorf("no schema registered for response type %q", rt)
	}
	data, err := schema.ToJSONIndent()
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema for %q: %w", rt, err)
	}
	return string(data), nil
}

// Types returns the registered response types in stable order.
func (r *Registry) Types() []types.ResponseType {
	out := make([]types.ResponseType, 0, len(r.schemas))
	for rt := range r.schemas {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks a JSON payload against the schema for the given response
// type and, on success, decodes it into the matching typed result. On
// failure it returns a *ValidationErrors carrying field-level violations.
// Validating the same payload twice yields the same outcome.
func (r *Registry) Validate(rt types.ResponseType, payload []byte) (*types.StructuredResult, error) {
	schema, ok := r.schemas[rt]
	if !ok {
		return nil, fmt.Errorf("no schema registered for response type %q", rt)
	}

	// Schema validation runs before decoding so violations carry field paths.
	if err := r.validator.Validate(payload, schema); err != nil {
		return nil, err
	}

	switch rt {
	case types.ResponseTypeFlight:
		var f types.FlightRecommendation
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, decodeFailure(err)
		}
		return types.NewFlightResult(&f), nil

	case types.ResponseTypeHotel:
		var h types.HotelRecommendation
		if err := json.Unmarshal(payload, &h); err != nil {
			return nil, decodeFailure(err)
		}
		return types.NewHotelResult(&h), nil

	case types.ResponseTypeTravelPlan:
		var p types.TravelPlan
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, decodeFailure(err)
		}
		return types.NewPlanResult(&p), nil

	default:
		return nil, fmt.Errorf("no decoder registered for response type %q", rt)
	}
}

// decodeFailure wraps a JSON decode error as validation errors so callers
// handle one failure shape.
func decodeFailure(err error) error {
	return &ValidationErrors{
		Errors: []ParseError{{Path: "", Message: fmt.Sprintf("JSON parse error: %v", err)}},
	}
}

// mustSchema panics when schema generation fails; the travel result types
// are static so a failure here is a programming error.
func mustSchema(v any) *JSONSchema {
	schema, err := NewSchemaGenerator().GenerateSchemaFromValue(v)
	if err != nil {
		panic(fmt.Sprintf("structured: schema generation failed for %T: %v", v, err))
	}
	return schema
}

// FlightSchema builds the schema for flight recommendations. Constraints
// come from the jsonschema tags on types.FlightRecommendation: every field
// is required, the airline must be non-empty, and the price non-negative.
func FlightSchema() *JSONSchema {
	return mustSchema(types.FlightRecommendation{}).
		WithTitle("FlightRecommendation").
		WithDescription("A single flight recommendation for a travel query.")
}

// HotelSchema builds the schema for hotel recommendations. Every field is
// required, the name must be non-empty, and the nightly rate non-negative.
// The amenities list must be present but may be empty.
func HotelSchema() *JSONSchema {
	return mustSchema(types.HotelRecommendation{}).
		WithTitle("HotelRecommendation").
		WithDescription("A single hotel recommendation for a travel query.")
}

// TravelPlanSchema builds the schema for travel plans. Every field is
// required, the destination must be non-empty, the duration a positive
// whole number of days, and the budget non-negative.
func TravelPlanSchema() *JSONSchema {
	return mustSchema(types.TravelPlan{}).
		WithTitle("TravelPlan").
		WithDescription("An overall travel plan for a destination.")
}
