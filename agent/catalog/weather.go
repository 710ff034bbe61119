package catalog

import "fmt"

// weatherCondition pairs a sky condition with its forecast probability.
// Slice order doubles as the tie break: when two conditions share the top
// probability, the one listed first is reported.
type weatherCondition struct {
	Name        string
	Probability float64
}

type cityWeather struct {
	Conditions []weatherCondition
	TempRange  string
}

var weatherCatalog = map[string]cityWeather{
	"New York":    {Conditions: []weatherCondition{{"sunny", 0.3}, {"rainy", 0.4}, {"cloudy", 0.3}}, TempRange: "15-25°C"},
	"Los Angeles": {Conditions: []weatherCondition{{"sunny", 0.7}, {"rainy", 0.1}, {"cloudy", 0.2}}, TempRange: "20-30°C"},
	"Chicago":     {Conditions: []weatherCondition{{"sunny", 0.4}, {"rainy", 0.3}, {"cloudy", 0.3}}, TempRange: "10-20°C"},
	"Miami":       {Conditions: []weatherCondition{{"sunny", 0.6}, {"rainy", 0.3}, {"cloudy", 0.1}}, TempRange: "25-35°C"},
	"London":      {Conditions: []weatherCondition{{"sunny", 0.2}, {"rainy", 0.5}, {"cloudy", 0.3}}, TempRange: "10-18°C"},
	"Paris":       {Conditions: []weatherCondition{{"sunny", 0.4}, {"rainy", 0.2}, {"cloudy", 0.4}}, TempRange: "12-22°C"},
	"Tokyo":       {Conditions: []weatherCondition{{"sunny", 0.5}, {"rainy", 0.3}, {"cloudy", 0.2}}, TempRange: "15-25°C"},
}

// travelCities lists the cities with catalog coverage in a stable order.
var travelCities = []string{
	"New York",
	"Los Angeles",
	"Chicago",
	"Miami",
	"London",
	"Paris",
	"Tokyo",
}

// Cities returns the canonical city names covered by the catalog.
func Cities() []string {
	out := make([]string, len(travelCities))
	copy(out, travelCities)
	return out
}

// WeatherForecast returns a one-sentence forecast for the city on the given
// date. City matching is exact; unknown cities get a "not available"
// sentence rather than an error.
func WeatherForecast(city, date string) string {
	w, ok := weatherCatalog[city]
	if !ok {
		return fmt.Sprintf("Weather forecast for %s is not available.", city)
	}
	likely := w.Conditions[0]
	for _, c := range w.Conditions[1:] {
		if c.Probability > likely.Probability {
			likely = c
		}
	}
	return fmt.Sprintf("The weather in %s on %s is forecasted to be %s with temperatures around %s.",
		city, date, likely.Name, w.TempRange)
}
