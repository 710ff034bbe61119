package handoff

import (
	"strings"

	"github.com/BaSui01/tripflow/agent/specialist"
)

// Keyword vocabularies for the deterministic classifier. Single ASCII
// words are counted at word boundaries so "fly" does not score inside
// "flying"; phrases and Chinese terms are counted as substrings.
var (
	flightTerms = []string{
		"flight", "flights", "fly", "flying", "airline", "airlines",
		"airfare", "plane", "airport", "departure", "layover", "nonstop",
		"round trip", "one way", "direct flight",
		"机票", "航班", "飞机", "直飞", "转机",
	}

	hotelTerms = []string{
		"hotel", "hotels", "motel", "hostel", "accommodation",
		"accommodations", "room", "rooms", "suite", "resort", "lodging",
		"stay", "staying", "check-in", "check in", "per night",
		"酒店", "旅馆", "住宿", "民宿", "客房",
	}
)

// Classification is the deterministic routing decision for one query.
type Classification struct {
	// Target agent ID.
	Target string
	// FlightScore and HotelScore are the raw keyword counts.
	FlightScore int
	HotelScore  int
	// Ambiguous is true when both scores are positive and equal.
	Ambiguous bool
}

// Classify scores a query against the flight and hotel vocabularies.
// The higher score wins; any tie, including zero-zero, routes to the
// general planner. Classification never fails and never touches the
// network.
func Classify(query string) Classification {
	lower := strings.ToLower(query)
	c := Classification{
		FlightScore: scoreTerms(lower, flightTerms),
		HotelScore:  scoreTerms(lower, hotelTerms),
	}
	switch {
	case c.FlightScore > c.HotelScore:
		c.Target = specialist.AgentFlight
	case c.HotelScore > c.FlightScore:
		c.Target = specialist.AgentHotel
	default:
		c.Target = specialist.AgentPlanner
		c.Ambiguous = c.FlightScore > 0
	}
	return c
}

func scoreTerms(lower string, terms []string) int {
	score := 0
	for _, term := range terms {
		score += countTerm(lower, term)
	}
	return score
}

// countTerm counts occurrences of term in the lowercased query.
func countTerm(lower, term string) int {
	if !isASCIIWord(term) {
		return strings.Count(lower, term)
	}

	count, idx := 0, 0
	for {
		i := strings.Index(lower[idx:], term)
		if i < 0 {
			return count
		}
		start := idx + i
		end := start + len(term)
		if boundaryBefore(lower, start) && boundaryAfter(lower, end) {
			count++
		}
		idx = end
	}
}

// isASCIIWord reports whether the term is a single ASCII word, eligible
// for boundary-checked matching.
func isASCIIWord(term string) bool {
	for i := 0; i < len(term); i++ {
		c := term[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return len(term) > 0
}

func boundaryBefore(s string, pos int) bool {
	return pos == 0 || !isWordByte(s[pos-1])
}

func boundaryAfter(s string, pos int) bool {
	return pos >= len(s) || !isWordByte(s[pos])
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
