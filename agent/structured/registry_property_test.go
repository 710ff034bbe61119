package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/tripflow/types"
)

// 对任意有效的旅行结果实例, 序列化后应通过注册表校验,
// 解码回强类型结果应与原实例等值; 对任意越界或空标识字段,
// 校验应整条拒绝并给出字段路径。

func drawFlight(rt *rapid.T) types.FlightRecommendation {
	return types.FlightRecommendation{
		Airline:              rapid.StringMatching(`[A-Z][a-z]{2,10}`).Draw(rt, "airline"),
		DepartureTime:        rapid.StringMatching(`([01][0-9]|2[0-3]):[0-5][0-9]`).Draw(rt, "departureTime"),
		ArrivalTime:          rapid.StringMatching(`([01][0-9]|2[0-3]):[0-5][0-9]`).Draw(rt, "arrivalTime"),
		Price:                rapid.Float64Range(0, 5000).Draw(rt, "price"),
		DirectFlight:         rapid.Bool().Draw(rt, "directFlight"),
		RecommendationReason: rapid.StringMatching(`[A-Za-z ]{5,40}`).Draw(rt, "reason"),
	}
}

func drawHotel(rt *rapid.T) types.HotelRecommendation {
	amenities := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z ]{3,12}`), 0, 5).Draw(rt, "amenities")
	if amenities == nil {
		// nil 切片会编码为 null, 而 amenities 要求的是数组
		amenities = []string{}
	}
	return types.HotelRecommendation{
		Name:                 rapid.StringMatching(`[A-Z][a-z]{2,12}( [A-Z][a-z]{2,8})?`).Draw(rt, "name"),
		Location:             rapid.StringMatching(`[A-Za-z ]{3,20}`).Draw(rt, "location"),
		PricePerNight:        rapid.Float64Range(0, 2000).Draw(rt, "pricePerNight"),
		Amenities:            amenities,
		RecommendationReason: rapid.StringMatching(`[A-Za-z ]{5,40}`).Draw(rt, "reason"),
	}
}

func drawPlan(rt *rapid.T) types.TravelPlan {
	activities := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z ]{3,20}`), 0, 6).Draw(rt, "activities")
	if activities == nil {
		activities = []string{}
	}
	return types.TravelPlan{
		Destination:  rapid.StringMatching(`[A-Z][a-z]{2,15}`).Draw(rt, "destination"),
		DurationDays: rapid.IntRange(1, 30).Draw(rt, "durationDays"),
		Budget:       rapid.Float64Range(0, 50000).Draw(rt, "budget"),
		Activities:   activities,
		Notes:        rapid.StringMatching(`[A-Za-z ]{0,60}`).Draw(rt, "notes"),
	}
}

func TestProperty_Registry_FlightRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()
		instance := drawFlight(rt)

		payload, err := json.Marshal(instance)
		require.NoError(t, err, "JSON marshaling should succeed")

		result, err := reg.Validate(types.ResponseTypeFlight, payload)
		require.NoError(t, err, "Valid flight instance should pass validation")
		require.NotNil(t, result.Flight)

		assert.Equal(t, instance.Airline, result.Flight.Airline)
		assert.Equal(t, instance.DepartureTime, result.Flight.DepartureTime)
		assert.Equal(t, instance.ArrivalTime, result.Flight.ArrivalTime)
		assert.InDelta(t, instance.Price, result.Flight.Price, 0.0001)
		assert.Equal(t, instance.DirectFlight, result.Flight.DirectFlight)
		assert.Equal(t, instance.RecommendationReason, result.Flight.RecommendationReason)
	})
}

func TestProperty_Registry_HotelRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()
		instance := drawHotel(rt)

		payload, err := json.Marshal(instance)
		require.NoError(t, err, "JSON marshaling should succeed")

		result, err := reg.Validate(types.ResponseTypeHotel, payload)
		require.NoError(t, err, "Valid hotel instance should pass validation")
		require.NotNil(t, result.Hotel)

		assert.Equal(t, instance.Name, result.Hotel.Name)
		assert.Equal(t, instance.Location, result.Hotel.Location)
		assert.InDelta(t, instance.PricePerNight, result.Hotel.PricePerNight, 0.0001)
		assert.Equal(t, instance.Amenities, result.Hotel.Amenities)
		assert.Equal(t, instance.RecommendationReason, result.Hotel.RecommendationReason)
	})
}

func TestProperty_Registry_PlanRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()
		instance := drawPlan(rt)

		payload, err := json.Marshal(instance)
		require.NoError(t, err, "JSON marshaling should succeed")

		result, err := reg.Validate(types.ResponseTypeTravelPlan, payload)
		require.NoError(t, err, "Valid plan instance should pass validation")
		require.NotNil(t, result.Plan)

		assert.Equal(t, instance.Destination, result.Plan.Destination)
		assert.Equal(t, instance.DurationDays, result.Plan.DurationDays)
		assert.InDelta(t, instance.Budget, result.Plan.Budget, 0.0001)
		assert.Equal(t, instance.Activities, result.Plan.Activities)
		assert.Equal(t, instance.Notes, result.Plan.Notes)
	})
}

func TestProperty_Registry_NegativePriceAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()

		instance := drawHotel(rt)
		instance.PricePerNight = rapid.Float64Range(-10000, -0.01).Draw(rt, "negativePrice")

		payload, err := json.Marshal(instance)
		require.NoError(t, err)

		result, err := reg.Validate(types.ResponseTypeHotel, payload)
		assert.Nil(t, result, "No partial result for invalid payload")
		require.Error(t, err, "Negative nightly rate should fail validation")

		ve, ok := err.(*ValidationErrors)
		require.True(t, ok, "Error should be ValidationErrors type")
		require.NotEmpty(t, ve.Errors)
		assert.Equal(t, "price_per_night", ve.Errors[0].Path, "Error should name the violating field")
	})
}

func TestProperty_Registry_EmptyIdentifierAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()

		instance := drawFlight(rt)
		instance.Airline = ""

		payload, err := json.Marshal(instance)
		require.NoError(t, err)

		result, err := reg.Validate(types.ResponseTypeFlight, payload)
		assert.Nil(t, result)
		require.Error(t, err, "Empty airline should fail validation")

		ve, ok := err.(*ValidationErrors)
		require.True(t, ok)
		require.NotEmpty(t, ve.Errors)
		assert.Equal(t, "airline", ve.Errors[0].Path)
	})
}

func TestProperty_Registry_NonPositiveDurationAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()

		instance := drawPlan(rt)
		instance.DurationDays = rapid.IntRange(-30, 0).Draw(rt, "badDuration")

		payload, err := json.Marshal(instance)
		require.NoError(t, err)

		result, err := reg.Validate(types.ResponseTypeTravelPlan, payload)
		assert.Nil(t, result)
		require.Error(t, err, "Non-positive duration should fail validation")

		ve, ok := err.(*ValidationErrors)
		require.True(t, ok)
		require.NotEmpty(t, ve.Errors)
		assert.Equal(t, "duration_days", ve.Errors[0].Path)
	})
}

func TestProperty_Registry_ValidationDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := NewRegistry()

		// 随机选择有效或无效载荷, 重复校验结果必须一致
		instance := drawHotel(rt)
		if rapid.Bool().Draw(rt, "mutate") {
			instance.PricePerNight = -1
		}
		payload, err := json.Marshal(instance)
		require.NoError(t, err)

		first, err1 := reg.Validate(types.ResponseTypeHotel, payload)
		second, err2 := reg.Validate(types.ResponseTypeHotel, payload)

		assert.Equal(t, first, second, "Repeated validation should yield the same result")
		if err1 == nil {
			assert.NoError(t, err2)
		} else {
			require.Error(t, err2)
			assert.Equal(t, err1.Error(), err2.Error(), "Repeated validation should yield the same errors")
		}
	})
}
