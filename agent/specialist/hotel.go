package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/tripflow/agent/catalog"
	"github.com/BaSui01/tripflow/types"
)

const hotelInstructions = `You are a hotel specialist who helps users find the best accommodations for their trips.

Review the hotel options provided with the request, then recommend the single best hotel for the user's preferences (location, price, amenities).

Always explain the reasoning behind your recommendation in the recommendation_reason field.`

// HotelAgent recommends one hotel per query.
type HotelAgent struct {
	base
}

// NewHotelAgent builds the hotel specialist.
func NewHotelAgent(opts Options) *HotelAgent {
	return &HotelAgent{base: newBase(AgentHotel, types.ResponseTypeHotel, hotelInstructions, opts)}
}

// Handle resolves a hotel query against the hotel catalog. A recognized
// price ceiling filters the options before they reach the prompt, so the
// recommendation cannot exceed it.
func (a *HotelAgent) Handle(ctx context.Context, query string) (*types.StructuredResult, error) {
	params := catalog.ExtractHotelParams(query)
	options := catalog.SearchHotels(params.City, params.CheckIn, params.CheckOut, params.MaxPrice)

	payload, err := a.completeRaw(ctx, query, hotelToolContext(params, options))
	if err != nil {
		return nil, err
	}
	return a.validate(payload)
}

// hotelToolContext phrases the catalog lookup the way a tool result would
// read in the conversation.
func hotelToolContext(p catalog.HotelParams, options catalog.HotelOptions) string {
	var sb strings.Builder
	sb.WriteString("Available hotel options")
	if p.City != "" {
		fmt.Fprintf(&sb, " in %s", p.City)
	}
	if p.CheckIn != "" {
		fmt.Fprintf(&sb, " from %s", p.CheckIn)
		if p.CheckOut != "" {
			fmt.Fprintf(&sb, " to %s", p.CheckOut)
		}
	}
	if p.MaxPrice > 0 {
		fmt.Fprintf(&sb, " (nightly rate capped at $%.2f)", p.MaxPrice)
	}
	sb.WriteString(":\n")
	sb.WriteString(options.JSON())
	return sb.String()
}
