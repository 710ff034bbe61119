package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/tripflow/agent/catalog"
	"github.com/BaSui01/tripflow/types"
)

const flightInstructions = `You are a flight specialist who helps users find the best flights for their trips.

Review the flight options provided with the request, then recommend the single best flight for the user's preferences (price, time, direct vs. connecting).

Always explain the reasoning behind your recommendation in the recommendation_reason field.`

// FlightAgent recommends one flight per query.
type FlightAgent struct {
	base
}

// NewFlightAgent builds the flight specialist.
func NewFlightAgent(opts Options) *FlightAgent {
	return &FlightAgent{base: newBase(AgentFlight, types.ResponseTypeFlight, flightInstructions, opts)}
}

// Handle resolves a flight query against the flight catalog.
func (a *FlightAgent) Handle(ctx context.Context, query string) (*types.StructuredResult, error) {
	params := catalog.ExtractFlightParams(query)
	options := catalog.SearchFlights(params.Origin, params.Destination, params.Date)

	payload, err := a.completeRaw(ctx, query, flightToolContext(params, options))
	if err != nil {
		return nil, err
	}
	return a.validate(payload)
}

// flightToolContext phrases the catalog lookup the way a tool result would
// read in the conversation.
func flightToolContext(p catalog.FlightParams, options catalog.FlightOptions) string {
	var sb strings.Builder
	sb.WriteString("Available flight options")
	switch {
	case p.Origin != "" && p.Destination != "":
		fmt.Fprintf(&sb, " from %s to %s", p.Origin, p.Destination)
	case p.Destination != "":
		fmt.Fprintf(&sb, " to %s", p.Destination)
	case p.Origin != "":
		fmt.Fprintf(&sb, " from %s", p.Origin)
	}
	if p.Date != "" {
		fmt.Fprintf(&sb, " on %s", p.Date)
	}
	sb.WriteString(":\n")
	sb.WriteString(options.JSON())
	return sb.String()
}
