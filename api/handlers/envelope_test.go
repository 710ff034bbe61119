package handlers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/tripflow/agent/handoff"
	"github.com/BaSui01/tripflow/agent/specialist"
	"github.com/BaSui01/tripflow/types"
)

// =============================================================================
// 🧪 信封构建测试
// =============================================================================

func resolvedOutcome(result *types.StructuredResult, agentID string) *handoff.Outcome {
	return &handoff.Outcome{
		QueryID:      "q-1",
		State:        handoff.StateResolved,
		ResponseType: result.Type,
		Result:       result,
		AgentID:      agentID,
		Elapsed:      120 * time.Millisecond,
	}
}

func failedOutcome(err error) *handoff.Outcome {
	return &handoff.Outcome{
		QueryID: "q-2",
		State:   handoff.StateFailed,
		Err:     err,
		Elapsed: 40 * time.Millisecond,
	}
}

func TestNewEnvelope_Flight(t *testing.T) {
	result := types.NewFlightResult(&types.FlightRecommendation{
		Airline:              "United Airlines",
		DepartureTime:        "2026-09-01T08:30:00Z",
		ArrivalTime:          "2026-09-01T11:45:00Z",
		Price:                412.50,
		DirectFlight:         true,
		RecommendationReason: "Direct morning flight with the best price",
	})

	envelope := NewEnvelope(resolvedOutcome(result, specialist.AgentFlight))

	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.ResponseType)
	assert.Equal(t, types.ResponseTypeFlight, *envelope.ResponseType)
	assert.Same(t, result, envelope.Data)
	assert.Equal(t, "Flight recommendation generated successfully", envelope.Message)
}

func TestNewEnvelope_Hotel(t *testing.T) {
	result := types.NewHotelResult(&types.HotelRecommendation{
		Name:                 "Riverside Inn",
		Location:             "Le Marais",
		PricePerNight:        240,
		Amenities:            []string{"pool", "wifi"},
		RecommendationReason: "Inside budget with a pool",
	})

	envelope := NewEnvelope(resolvedOutcome(result, specialist.AgentHotel))

	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.ResponseType)
	assert.Equal(t, types.ResponseTypeHotel, *envelope.ResponseType)
	assert.Equal(t, "Hotel recommendation generated successfully", envelope.Message)
}

func TestNewEnvelope_TravelPlan(t *testing.T) {
	result := types.NewPlanResult(&types.TravelPlan{
		Destination:  "Tokyo",
		DurationDays: 5,
		Budget:       2000,
		Activities:   []string{"Senso-ji temple", "Tsukiji market"},
		Notes:        "Get a Suica card on arrival",
	})

	envelope := NewEnvelope(resolvedOutcome(result, specialist.AgentPlanner))

	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.ResponseType)
	assert.Equal(t, types.ResponseTypeTravelPlan, *envelope.ResponseType)
	assert.Equal(t, "Travel plan generated successfully", envelope.Message)
}

func TestNewEnvelope_FailureMessagesAreStablePerCode(t *testing.T) {
	tests := []struct {
		code        types.ErrorCode
		wantMessage string
	}{
		{types.ErrInvalidInput, "Query must be a non-empty travel question."},
		{types.ErrGuardrailsViolated, "Query was rejected by input safety checks."},
		{types.ErrHandoffDepthExceeded, "The travel planner could not settle on a specialist for this query."},
		{types.ErrSchemaValidation, "The generated recommendation was malformed. Please try again."},
		{types.ErrCompletion, "The travel assistant could not complete the request. Please try again."},
		{types.ErrTimeout, "The request timed out. Please try again."},
		{types.ErrRateLimited, "Too many requests right now. Please try again shortly."},
		{types.ErrInternalError, defaultFailureMessage},
		{"SOMETHING_NEW", defaultFailureMessage},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			envelope := NewEnvelope(failedOutcome(types.NewError(tt.code, "internal detail")))

			assert.False(t, envelope.Success)
			assert.Nil(t, envelope.ResponseType)
			assert.Nil(t, envelope.Data)
			assert.Equal(t, tt.wantMessage, envelope.Message)
		})
	}
}

func TestNewEnvelope_DoesNotLeakDiagnostics(t *testing.T) {
	err := types.NewError(types.ErrCompletion, "provider exploded at 10.0.0.3:8443").
		WithCause(errors.New("api key sk-secret-12345 rejected"))

	envelope := NewEnvelope(failedOutcome(err))

	assert.False(t, envelope.Success)
	assert.NotContains(t, envelope.Message, "10.0.0.3")
	assert.NotContains(t, envelope.Message, "sk-secret-12345")
	assert.NotContains(t, envelope.Message, "exploded")
	assert.Equal(t, failureMessage(types.ErrCompletion), envelope.Message)
}

func TestNewEnvelope_NilOutcome(t *testing.T) {
	envelope := NewEnvelope(nil)

	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.ResponseType)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, defaultFailureMessage, envelope.Message)
}

func TestNewEnvelope_UntypedError(t *testing.T) {
	envelope := NewEnvelope(failedOutcome(errors.New("plain failure")))

	assert.False(t, envelope.Success)
	assert.Equal(t, defaultFailureMessage, envelope.Message)
}

func TestFailureEnvelope_EncodesNullFields(t *testing.T) {
	envelope := FailureEnvelope(types.ErrInvalidInput)

	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"response_type": null,
		"data": null,
		"message": "Query must be a non-empty travel question."
	}`, string(data))
}

func TestNewEnvelope_ResolvedJSONShape(t *testing.T) {
	result := types.NewHotelResult(&types.HotelRecommendation{
		Name:                 "Riverside Inn",
		Location:             "Le Marais",
		PricePerNight:        240,
		Amenities:            []string{},
		RecommendationReason: "Inside budget",
	})

	data, err := json.Marshal(NewEnvelope(resolvedOutcome(result, specialist.AgentHotel)))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"response_type": "hotel",
		"data": {
			"name": "Riverside Inn",
			"location": "Le Marais",
			"price_per_night": 240,
			"amenities": [],
			"recommendation_reason": "Inside budget"
		},
		"message": "Hotel recommendation generated successfully"
	}`, string(data))
}
