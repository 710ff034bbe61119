package specialist

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/agent/catalog"
	"github.com/BaSui01/tripflow/types"
)

const plannerInstructions = `You are a comprehensive travel planning assistant that helps users plan their perfect trip.

When creating travel plans, consider:
- The weather at the destination
- Local attractions and activities
- Budget constraints
- Travel duration

Provide specific recommendations based on the user's interests and preferences.

If the request is specifically about booking a flight, respond with exactly {"handoff": "flight_specialist", "reason": "<short reason>"} and nothing else. If it is specifically about booking a hotel, respond with exactly {"handoff": "hotel_specialist", "reason": "<short reason>"} and nothing else.`

// PlannerAgent produces whole travel plans and may delegate narrow flight
// or hotel queries instead of answering them itself.
type PlannerAgent struct {
	base
}

// NewPlannerAgent builds the general travel planner.
func NewPlannerAgent(opts Options) *PlannerAgent {
	return &PlannerAgent{base: newBase(AgentPlanner, types.ResponseTypeTravelPlan, plannerInstructions, opts)}
}

// Handle resolves a general planning query. When the completion is a
// handoff directive, the directive is returned as the error and the
// result is nil.
func (a *PlannerAgent) Handle(ctx context.Context, query string) (*types.StructuredResult, error) {
	payload, err := a.completeRaw(ctx, query, plannerToolContext(query))
	if err != nil {
		return nil, err
	}
	if d := parseDirective(payload); d != nil {
		a.logger.Info("planner requested handoff",
			zap.String("target", d.Target),
			zap.String("reason", d.Reason))
		return nil, d
	}
	return a.validate(payload)
}

// plannerToolContext surfaces the weather forecast for the city the query
// is about, when one is recognized.
func plannerToolContext(query string) string {
	city := catalog.ExtractCity(query)
	if city == "" {
		return ""
	}
	date := catalog.ExtractDate(query)
	if date == "" {
		date = "the planned dates"
	}
	return "Weather context:\n" + catalog.WeatherForecast(city, date)
}
