package specialist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/agent/structured"
	"github.com/BaSui01/tripflow/llm"
	"github.com/BaSui01/tripflow/llm/tokenizer"
	"github.com/BaSui01/tripflow/types"
)

// Agent IDs used in handoff directives, logs, and the agents listing.
const (
	AgentPlanner = "travel_planner"
	AgentFlight  = "flight_specialist"
	AgentHotel   = "hotel_specialist"
)

// Agent is a stateless specialist: it turns one travel query into one
// schema-validated structured result.
type Agent interface {
	// Handle resolves a single query. The returned result has passed
	// schema validation; errors are *types.Error, except the planner's
	// *HandoffDirective.
	Handle(ctx context.Context, query string) (*types.StructuredResult, error)

	// ID returns the stable agent identifier.
	ID() string

	// ResponseType returns the result type this agent produces.
	ResponseType() types.ResponseType
}

// Options configure a specialist. Provider is required; a nil Registry
// falls back to the standard travel registry and a nil Logger to a no-op
// logger.
type Options struct {
	Provider llm.Provider
	Registry *structured.Registry
	Logger   *zap.Logger

	// Model named in completion requests.
	Model string
	// Temperature forwarded to the provider.
	Temperature float32
	// MaxTokens caps the completion length; zero leaves it to the backend.
	MaxTokens int
	// MaxPromptTokens rejects oversized prompts before the provider call;
	// zero disables the budget check.
	MaxPromptTokens int
}

// base carries the shared completion pipeline: prompt assembly, token
// budget check, one provider call, JSON extraction, schema validation.
type base struct {
	id           string
	responseType types.ResponseType
	instructions string

	provider     llm.Provider
	registry     *structured.Registry
	logger       *zap.Logger
	model        string
	temperature  float32
	maxTokens    int
	promptBudget int
}

func newBase(id string, rt types.ResponseType, instructions string, opts Options) base {
	registry := opts.Registry
	if registry == nil {
		registry = structured.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		id:           id,
		responseType: rt,
		instructions: instructions,
		provider:     opts.Provider,
		registry:     registry,
		logger:       logger.With(zap.String("component", id)),
		model:        opts.Model,
		temperature:  opts.Temperature,
		maxTokens:    opts.MaxTokens,
		promptBudget: opts.MaxPromptTokens,
	}
}

// ID returns the stable agent identifier.
func (b *base) ID() string { return b.id }

// ResponseType returns the result type this agent produces.
func (b *base) ResponseType() types.ResponseType { return b.responseType }

// completeRaw runs exactly one completion and returns the extracted JSON
// payload. Provider errors that already carry a typed code pass through
// unchanged so the router can judge retryability.
func (b *base) completeRaw(ctx context.Context, query, toolContext string) (string, error) {
	messages, err := b.buildMessages(query, toolContext)
	if err != nil {
		return "", err
	}
	if err := b.checkPromptBudget(messages); err != nil {
		return "", err
	}

	resp, err := b.provider.Completion(ctx, &llm.ChatRequest{
		Model:       b.model,
		Messages:    messages,
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		var typed *types.Error
		if errors.As(err, &typed) {
			return "", err
		}
		return "", types.NewError(types.ErrCompletion, "completion request failed").WithCause(err)
	}

	content, err := llm.FirstChoiceContent(resp)
	if err != nil {
		return "", types.NewError(types.ErrCompletion, "completion returned no choices").WithCause(err)
	}
	return structured.ExtractJSON(content), nil
}

// buildMessages assembles the two-message prompt: role instructions plus
// schema block as system, tool context plus the traveler's query as user.
func (b *base) buildMessages(query, toolContext string) ([]llm.Message, error) {
	schema, ok := b.registry.Schema(b.responseType)
	if !ok {
		return nil, types.NewError(types.ErrInternalError,
			fmt.Sprintf("no schema registered for response type %q", b.responseType))
	}
	schemaInstr, err := structured.SchemaInstructions(schema)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to render schema instructions").WithCause(err)
	}

	user := query
	if toolContext != "" {
		user = toolContext + "\n\nTraveler request: " + query
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.instructions + "\n\n" + schemaInstr},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

// checkPromptBudget estimates prompt tokens and rejects oversized prompts
// before any provider call is made.
func (b *base) checkPromptBudget(messages []llm.Message) error {
	if b.promptBudget <= 0 {
		return nil
	}
	est := make([]tokenizer.Message, len(messages))
	for i, m := range messages {
		est[i] = tokenizer.Message{Role: string(m.Role), Content: m.Content}
	}
	count := tokenizer.EstimateMessages(b.model, est)
	b.logger.Debug("estimated prompt tokens",
		zap.Int("tokens", count),
		zap.Int("budget", b.promptBudget))
	if count > b.promptBudget {
		return types.NewError(types.ErrContextTooLong,
			fmt.Sprintf("estimated prompt tokens %d exceed budget %d", count, b.promptBudget))
	}
	return nil
}

// validate checks the payload against this agent's schema and decodes it
// into the typed result. Validation failures are never retryable.
func (b *base) validate(payload string) (*types.StructuredResult, error) {
	result, err := b.registry.Validate(b.responseType, []byte(payload))
	if err != nil {
		b.logger.Warn("completion failed schema validation",
			zap.String("response_type", string(b.responseType)),
			zap.Error(err))
		return nil, types.NewError(types.ErrSchemaValidation,
			fmt.Sprintf("%s result failed schema validation", b.responseType)).WithCause(err)
	}
	return result, nil
}

var (
	_ Agent = (*FlightAgent)(nil)
	_ Agent = (*HotelAgent)(nil)
	_ Agent = (*PlannerAgent)(nil)
)
