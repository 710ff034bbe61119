package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// FlightParams are the route fields recognized in a flight query.
type FlightParams struct {
	Origin      string
	Destination string
	Date        string
}

// HotelParams are the stay fields recognized in a hotel query.
type HotelParams struct {
	City     string
	CheckIn  string
	CheckOut string
	MaxPrice float64
}

var (
	isoDateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	// priceLimitRe only accepts phrases that are unambiguously about price.
	// Looser phrases like "within 5 minutes" must not set a ceiling.
	priceLimitRe = regexp.MustCompile(`(?i)\b(?:under|below|less than|cheaper than)\s*\$?\s*(\d+(?:\.\d{1,2})?)`)
)

// dateWords are loose date phrases recognized when no ISO date is present.
// Multi-word phrases come first so they win over their substrings.
var dateWords = []string{
	"this weekend",
	"next weekend",
	"next week",
	"next month",
	"tomorrow",
	"tonight",
	"today",
}

// ExtractFlightParams recognizes origin and destination cities plus a date
// in a free-form flight query. Only catalog cities are recognized; a city
// with no "from"/"to" marker counts as the destination. Fields with no
// match stay empty.
func ExtractFlightParams(query string) FlightParams {
	p := FlightParams{Date: ExtractDate(query)}
	lower := strings.ToLower(query)
	fallback, fallbackIdx := "", -1
	for _, city := range travelCities {
		idx := strings.Index(lower, strings.ToLower(city))
		if idx < 0 {
			continue
		}
		prefix := lower[:idx]
		switch {
		case precededBy(prefix, "from"):
			if p.Origin == "" {
				p.Origin = city
			}
		case precededBy(prefix, "to"):
			if p.Destination == "" {
				p.Destination = city
			}
		default:
			if fallbackIdx < 0 || idx < fallbackIdx {
				fallback, fallbackIdx = city, idx
			}
		}
	}
	if p.Destination == "" && fallback != p.Origin {
		p.Destination = fallback
	}
	return p
}

// ExtractHotelParams recognizes the city, stay dates and a price ceiling in
// a free-form hotel query. "under $200" style phrases set MaxPrice; without
// one it stays zero, which disables the price filter.
func ExtractHotelParams(query string) HotelParams {
	p := HotelParams{
		City:     ExtractCity(query),
		MaxPrice: extractMaxPrice(query),
	}
	p.CheckIn, p.CheckOut = extractStayDates(query)
	return p
}

// ExtractCity returns the catalog city the query is about: a city
// introduced by "in" or "at" wins, otherwise the earliest mention.
// Returns "" when no catalog city appears.
func ExtractCity(query string) string {
	lower := strings.ToLower(query)
	first, firstIdx := "", -1
	for _, city := range travelCities {
		idx := strings.Index(lower, strings.ToLower(city))
		if idx < 0 {
			continue
		}
		if precededBy(lower[:idx], "in") || precededBy(lower[:idx], "at") {
			return city
		}
		if firstIdx < 0 || idx < firstIdx {
			first, firstIdx = city, idx
		}
	}
	return first
}

// precededBy reports whether the text right before a match ends with the
// given word.
func precededBy(prefix, word string) bool {
	trimmed := strings.TrimRight(prefix, " \t")
	return trimmed == word || strings.HasSuffix(trimmed, " "+word)
}

// ExtractDate returns an ISO date if present, otherwise the first loose
// date phrase, otherwise "".
func ExtractDate(query string) string {
	if m := isoDateRe.FindString(query); m != "" {
		return m
	}
	lower := strings.ToLower(query)
	for _, w := range dateWords {
		if strings.Contains(lower, w) {
			return w
		}
	}
	return ""
}

// extractStayDates reads up to two ISO dates as check-in and check-out,
// falling back to a loose phrase for check-in alone.
func extractStayDates(query string) (checkIn, checkOut string) {
	dates := isoDateRe.FindAllString(query, -1)
	switch len(dates) {
	case 0:
		return ExtractDate(query), ""
	case 1:
		return dates[0], ""
	default:
		return dates[0], dates[1]
	}
}

// extractMaxPrice reads a price ceiling from phrases like "under $200" or
// "less than 150.50". Zero means no ceiling was found.
func extractMaxPrice(query string) float64 {
	m := priceLimitRe.FindStringSubmatch(query)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}
