package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFlightParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  FlightParams
	}{
		{
			name:  "from and to markers",
			query: "I need a flight from New York to Chicago tomorrow",
			want:  FlightParams{Origin: "New York", Destination: "Chicago", Date: "tomorrow"},
		},
		{
			name:  "markers in reverse order",
			query: "fly to London from Paris on 2026-09-12",
			want:  FlightParams{Origin: "Paris", Destination: "London", Date: "2026-09-12"},
		},
		{
			name:  "bare city counts as destination",
			query: "any cheap Tokyo flights next week?",
			want:  FlightParams{Destination: "Tokyo", Date: "next week"},
		},
		{
			name:  "lowercase cities still recognized",
			query: "flights from miami to los angeles",
			want:  FlightParams{Origin: "Miami", Destination: "Los Angeles"},
		},
		{
			name:  "origin only",
			query: "what leaves from Chicago tonight",
			want:  FlightParams{Origin: "Chicago", Date: "tonight"},
		},
		{
			name:  "no recognizable city",
			query: "I want to fly somewhere warm",
			want:  FlightParams{},
		},
		{
			name:  "empty query",
			query: "",
			want:  FlightParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFlightParams(tt.query))
		})
	}
}

func TestExtractHotelParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  HotelParams
	}{
		{
			name:  "city with price ceiling",
			query: "find me a hotel in Paris under $200 per night",
			want:  HotelParams{City: "Paris", MaxPrice: 200},
		},
		{
			name:  "check-in and check-out dates",
			query: "hotel in Tokyo from 2026-10-01 to 2026-10-05",
			want:  HotelParams{City: "Tokyo", CheckIn: "2026-10-01", CheckOut: "2026-10-05"},
		},
		{
			name:  "single date is check-in only",
			query: "a room in London on 2026-11-20",
			want:  HotelParams{City: "London", CheckIn: "2026-11-20"},
		},
		{
			name:  "loose date phrase",
			query: "need a Miami hotel this weekend below 180",
			want:  HotelParams{City: "Miami", CheckIn: "this weekend", MaxPrice: 180},
		},
		{
			name:  "decimal ceiling",
			query: "somewhere in Chicago cheaper than 149.50",
			want:  HotelParams{City: "Chicago", MaxPrice: 149.50},
		},
		{
			name:  "duration phrases do not set a ceiling",
			query: "hotel in New York within 5 minutes of the station",
			want:  HotelParams{City: "New York"},
		},
		{
			name:  "nothing recognizable",
			query: "I need somewhere to sleep",
			want:  HotelParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHotelParams(tt.query))
		})
	}
}

func TestExtractCity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"in marker", "what's the weather in London next week", "London"},
		{"at marker", "staying at Miami for three nights", "Miami"},
		{"preposition beats earlier mention", "flying out of Tokyo, staying in Paris", "Paris"},
		{"earliest mention wins without marker", "Tokyo or New York, not sure yet", "Tokyo"},
		{"case insensitive", "weekend in new york", "New York"},
		{"no city", "plan me a beach holiday", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCity(tt.query))
		})
	}
}

func TestPrecededBy(t *testing.T) {
	assert.True(t, precededBy("a flight from ", "from"))
	assert.True(t, precededBy("from ", "from"))
	assert.True(t, precededBy("from", "from"))
	assert.False(t, precededBy("chrome ", "from"))
	assert.False(t, precededBy("", "from"))
}

func TestExtractDate(t *testing.T) {
	assert.Equal(t, "2026-12-24", ExtractDate("arriving 2026-12-24 late"))
	assert.Equal(t, "tomorrow", ExtractDate("Leaving Tomorrow morning"))
	assert.Equal(t, "this weekend", ExtractDate("somewhere fun this weekend"))
	assert.Equal(t, "", ExtractDate("whenever works"))
	// ISO 日期优先于口语化表达
	assert.Equal(t, "2026-09-01", ExtractDate("tomorrow or 2026-09-01"))
}
