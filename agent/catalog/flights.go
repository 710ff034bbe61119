package catalog

import "encoding/json"

// FlightOption is a single bookable flight in the fixture catalog.
type FlightOption struct {
	Airline       string  `json:"airline"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
	Direct        bool    `json:"direct"`
}

// FlightOptions is a list of flight options.
type FlightOptions []FlightOption

var flightCatalog = FlightOptions{
	{Airline: "SkyWays", DepartureTime: "08:00", ArrivalTime: "10:30", Price: 350.00, Direct: true},
	{Airline: "OceanAir", DepartureTime: "12:45", ArrivalTime: "15:15", Price: 275.50, Direct: true},
	{Airline: "MountainJet", DepartureTime: "16:30", ArrivalTime: "21:45", Price: 225.75, Direct: false},
}

// SearchFlights returns the flight options between two cities on a date.
// The catalog is fixed, so the parameters only shape the surrounding prompt
// context; every call returns the same three options.
func SearchFlights(origin, destination, date string) FlightOptions {
	out := make(FlightOptions, len(flightCatalog))
	copy(out, flightCatalog)
	return out
}

// JSON renders the options as a JSON array for prompt assembly.
func (o FlightOptions) JSON() string {
	b, err := json.Marshal(o)
	if err != nil {
		return "[]"
	}
	return string(b)
}
