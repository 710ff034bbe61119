package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/tripflow/agent/catalog"
	"github.com/BaSui01/tripflow/types"
)

func TestFlightAgent_Handle(t *testing.T) {
	p := &stubProvider{content: validFlightJSON}
	agent := NewFlightAgent(Options{Provider: p})

	result, err := agent.Handle(context.Background(), "I need a flight from New York to Chicago tomorrow")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, types.ResponseTypeFlight, result.Type)
	require.NotNil(t, result.Flight)
	assert.Equal(t, "OceanAir", result.Flight.Airline)
	assert.Equal(t, 275.50, result.Flight.Price)
	assert.True(t, result.Flight.DirectFlight)
	assert.Equal(t, 1, p.callCount())

	req := p.lastRequest()
	require.NotNil(t, req)
	assert.Contains(t, req.Messages[0].Content, "flight specialist")
	// 用户消息携带目录上下文与原始查询
	user := req.Messages[1].Content
	assert.Contains(t, user, "from New York to Chicago on tomorrow")
	assert.Contains(t, user, "SkyWays")
	assert.Contains(t, user, "MountainJet")
	assert.Contains(t, user, "Traveler request: I need a flight from New York to Chicago tomorrow")
}

func TestFlightAgent_FencedResponse(t *testing.T) {
	p := &stubProvider{content: "Here you go:\n```json\n" + validFlightJSON + "\n```"}
	agent := NewFlightAgent(Options{Provider: p})

	result, err := agent.Handle(context.Background(), "flight to Miami")
	require.NoError(t, err)
	require.NotNil(t, result.Flight)
	assert.Equal(t, "OceanAir", result.Flight.Airline)
}

func TestFlightToolContext(t *testing.T) {
	options := catalog.SearchFlights("", "", "")

	tests := []struct {
		name   string
		params catalog.FlightParams
		want   string
	}{
		{
			name:   "both cities and date",
			params: catalog.FlightParams{Origin: "Paris", Destination: "London", Date: "2026-09-12"},
			want:   "Available flight options from Paris to London on 2026-09-12:",
		},
		{
			name:   "destination only",
			params: catalog.FlightParams{Destination: "Tokyo"},
			want:   "Available flight options to Tokyo:",
		},
		{
			name:   "origin only",
			params: catalog.FlightParams{Origin: "Chicago"},
			want:   "Available flight options from Chicago:",
		},
		{
			name:   "nothing recognized",
			params: catalog.FlightParams{},
			want:   "Available flight options:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flightToolContext(tt.params, options)
			assert.Contains(t, got, tt.want)
			assert.Contains(t, got, `"airline":"SkyWays"`)
		})
	}
}
