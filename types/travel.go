package types

import (
	"encoding/json"
	"fmt"
)

// ResponseType identifies which kind of structured result a query resolved to.
type ResponseType string

const (
	ResponseTypeFlight     ResponseType = "flight"
	ResponseTypeHotel      ResponseType = "hotel"
	ResponseTypeTravelPlan ResponseType = "travel_plan"
)

// Valid reports whether rt is one of the known response types.
func (rt ResponseType) Valid() bool {
	switch rt {
	case ResponseTypeFlight, ResponseTypeHotel, ResponseTypeTravelPlan:
		return true
	}
	return false
}

// Label returns the human-readable label used in envelope messages.
func (rt ResponseType) Label() string {
	switch rt {
	case ResponseTypeFlight:
		return "Flight recommendation"
	case ResponseTypeHotel:
		return "Hotel recommendation"
	case ResponseTypeTravelPlan:
		return "Travel plan"
	}
	return string(rt)
}

// FlightRecommendation is the structured result produced by the flight specialist.
// The jsonschema tags drive schema generation and payload validation.
type FlightRecommendation struct {
	Airline              string  `json:"airline" jsonschema:"required,minLength=1,description=Operating airline name"`
	DepartureTime        string  `json:"departure_time" jsonschema:"required,minLength=1,description=Scheduled departure time"`
	ArrivalTime          string  `json:"arrival_time" jsonschema:"required,minLength=1,description=Scheduled arrival time"`
	Price                float64 `json:"price" jsonschema:"required,minimum=0,description=Ticket price in US dollars"`
	DirectFlight         bool    `json:"direct_flight" jsonschema:"required,description=True when the flight has no stops"`
	RecommendationReason string  `json:"recommendation_reason" jsonschema:"required,minLength=1,description=Why this flight fits the request"`
}

// HotelRecommendation is the structured result produced by the hotel specialist.
// Amenities must be present but may be empty.
type HotelRecommendation struct {
	Name                 string   `json:"name" jsonschema:"required,minLength=1,description=Hotel name"`
	Location             string   `json:"location" jsonschema:"required,minLength=1,description=Neighborhood or district"`
	PricePerNight        float64  `json:"price_per_night" jsonschema:"required,minimum=0,description=Nightly rate in US dollars"`
	Amenities            []string `json:"amenities" jsonschema:"required,description=Amenities offered by the hotel"`
	RecommendationReason string   `json:"recommendation_reason" jsonschema:"required,minLength=1,description=Why this hotel fits the request"`
}

// TravelPlan is the structured result produced by the travel planner.
type TravelPlan struct {
	Destination  string   `json:"destination" jsonschema:"required,minLength=1,description=Destination city or region"`
	DurationDays int      `json:"duration_days" jsonschema:"required,minimum=1,description=Trip length in whole days"`
	Budget       float64  `json:"budget" jsonschema:"required,minimum=0,description=Total trip budget in US dollars"`
	Activities   []string `json:"activities" jsonschema:"required,description=Suggested activities in order"`
	Notes        string   `json:"notes" jsonschema:"required,description=Practical notes for the traveler"`
}

// StructuredResult is a tagged union of the three specialist results.
// Exactly one variant pointer is non-nil and matches Type.
type StructuredResult struct {
	Type   ResponseType
	Flight *FlightRecommendation
	Hotel  *HotelRecommendation
	Plan   *TravelPlan
}

// NewFlightResult wraps a flight recommendation as a structured result.
func NewFlightResult(f *FlightRecommendation) *StructuredResult {
	return &StructuredResult{Type: ResponseTypeFlight, Flight: f}
}

// NewHotelResult wraps a hotel recommendation as a structured result.
func NewHotelResult(h *HotelRecommendation) *StructuredResult {
	return &StructuredResult{Type: ResponseTypeHotel, Hotel: h}
}

// NewPlanResult wraps a travel plan as a structured result.
func NewPlanResult(p *TravelPlan) *StructuredResult {
	return &StructuredResult{Type: ResponseTypeTravelPlan, Plan: p}
}

// Value returns the active variant. The second return is false when the
// union is empty or inconsistent.
func (r StructuredResult) Value() (any, bool) {
	switch r.Type {
	case ResponseTypeFlight:
		if r.Flight != nil {
			return r.Flight, true
		}
	case ResponseTypeHotel:
		if r.Hotel != nil {
			return r.Hotel, true
		}
	case ResponseTypeTravelPlan:
		if r.Plan != nil {
			return r.Plan, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the active variant as a bare object; the response
// type travels separately in the envelope.
func (r StructuredResult) MarshalJSON() ([]byte, error) {
	v, ok := r.Value()
	if !ok {
		return nil, fmt.Errorf("structured result has no value for type %q", r.Type)
	}
	return json.Marshal(v)
}

// TravelResponse is the uniform envelope returned for every query.
// Success is true iff Data passed schema validation. On failure
// ResponseType and Data are encoded as JSON null.
type TravelResponse struct {
	Success      bool              `json:"success"`
	ResponseType *ResponseType     `json:"response_type"`
	Data         *StructuredResult `json:"data"`
	Message      string            `json:"message"`
}

// UnmarshalJSON decodes the envelope, reconstructing the typed result
// variant from response_type so that decode→encode is byte-stable.
func (r *TravelResponse) UnmarshalJSON(b []byte) error {
	var shell struct {
		Success      bool            `json:"success"`
		ResponseType *ResponseType   `json:"response_type"`
		Data         json.RawMessage `json:"data"`
		Message      string          `json:"message"`
	}
	if err := json.Unmarshal(b, &shell); err != nil {
		return err
	}

	r.Success = shell.Success
	r.ResponseType = shell.ResponseType
	r.Message = shell.Message
	r.Data = nil

	if len(shell.Data) == 0 || string(shell.Data) == "null" {
		return nil
	}
	if shell.ResponseType == nil {
		return fmt.Errorf("envelope has data but no response_type")
	}

	result := &StructuredResult{Type: *shell.ResponseType}
	switch *shell.ResponseType {
	case ResponseTypeFlight:
		result.Flight = &FlightRecommendation{}
		if err := json.Unmarshal(shell.Data, result.Flight); err != nil {
			return err
		}
	case ResponseTypeHotel:
		result.Hotel = &HotelRecommendation{}
		if err := json.Unmarshal(shell.Data, result.Hotel); err != nil {
			return err
		}
	case ResponseTypeTravelPlan:
		result.Plan = &TravelPlan{}
		if err := json.Unmarshal(shell.Data, result.Plan); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown response_type %q", *shell.ResponseType)
	}
	r.Data = result
	return nil
}
