package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Round-trip stability: for any valid structured result, encode → decode →
// encode must produce identical bytes, so persisted and cached envelopes
// stay comparable.
func TestProperty_Envelope_RoundTripStability(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,20}[A-Za-z]`)

		var result *StructuredResult
		respType := rapid.SampledFrom([]ResponseType{
			ResponseTypeFlight, ResponseTypeHotel, ResponseTypeTravelPlan,
		}).Draw(rt, "responseType")

		switch respType {
		case ResponseTypeFlight:
			result = NewFlightResult(&FlightRecommendation{
				Airline:              word.Draw(rt, "airline"),
				DepartureTime:        "08:00",
				ArrivalTime:          "10:30",
				Price:                rapid.Float64Range(0, 10000).Draw(rt, "price"),
				DirectFlight:         rapid.Bool().Draw(rt, "direct"),
				RecommendationReason: word.Draw(rt, "reason"),
			})
		case ResponseTypeHotel:
			amenities := rapid.SliceOfN(word, 0, 5).Draw(rt, "amenities")
			result = NewHotelResult(&HotelRecommendation{
				Name:                 word.Draw(rt, "name"),
				Location:             word.Draw(rt, "location"),
				PricePerNight:        rapid.Float64Range(0, 5000).Draw(rt, "pricePerNight"),
				Amenities:            amenities,
				RecommendationReason: word.Draw(rt, "reason"),
			})
		case ResponseTypeTravelPlan:
			activities := rapid.SliceOfN(word, 0, 5).Draw(rt, "activities")
			result = NewPlanResult(&TravelPlan{
				Destination:  word.Draw(rt, "destination"),
				DurationDays: rapid.IntRange(1, 60).Draw(rt, "durationDays"),
				Budget:       rapid.Float64Range(0, 100000).Draw(rt, "budget"),
				Activities:   activities,
				Notes:        word.Draw(rt, "notes"),
			})
		}

		envelope := TravelResponse{
			Success:      true,
			ResponseType: &respType,
			Data:         result,
			Message:      respType.Label() + " generated successfully",
		}

		first, err := json.Marshal(envelope)
		require.NoError(rt, err)

		var decoded TravelResponse
		require.NoError(rt, json.Unmarshal(first, &decoded))

		second, err := json.Marshal(decoded)
		require.NoError(rt, err)
		require.Equal(rt, string(first), string(second))
	})
}
