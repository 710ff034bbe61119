package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/tripflow/agent/guardrails"
	"github.com/BaSui01/tripflow/agent/specialist"
	"github.com/BaSui01/tripflow/internal/metrics"
	"github.com/BaSui01/tripflow/types"
)

// Config carries the router's policy knobs.
type Config struct {
	// CompletionTimeout bounds each specialist call; zero disables it.
	CompletionTimeout time.Duration
	// MaxHandoffDepth caps planner redelegations; zero or less means 1.
	MaxHandoffDepth int
	// RetryTransient enables one retry of transient completion failures.
	RetryTransient bool
}

// Options wire a Router. Planner, Flight and Hotel are required; Guard
// defaults to the standard input chain, Logger to a no-op logger, and a
// nil Metrics collector records nothing.
type Options struct {
	Planner specialist.Agent
	Flight  specialist.Agent
	Hotel   specialist.Agent

	Guard   *guardrails.Chain
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Config  Config
}

// Router classifies travel queries and drives them through the routing
// state machine to a terminal outcome. Safe for concurrent use.
type Router struct {
	agents  map[string]specialist.Agent
	guard   *guardrails.Chain
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	cfg     Config
	group   singleflight.Group
}

// NewRouter builds a router over the three specialists.
func NewRouter(opts Options) (*Router, error) {
	if opts.Planner == nil || opts.Flight == nil || opts.Hotel == nil {
		return nil, fmt.Errorf("handoff: router requires planner, flight and hotel agents")
	}
	guard := opts.Guard
	if guard == nil {
		guard = guardrails.NewInputChain(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg.MaxHandoffDepth <= 0 {
		cfg.MaxHandoffDepth = 1
	}
	return &Router{
		agents: map[string]specialist.Agent{
			opts.Planner.ID(): opts.Planner,
			opts.Flight.ID():  opts.Flight,
			opts.Hotel.ID():   opts.Hotel,
		},
		guard:   guard,
		logger:  logger.With(zap.String("component", "query_router")),
		metrics: opts.Metrics,
		tracer:  otel.Tracer("github.com/BaSui01/tripflow/agent/handoff"),
		cfg:     cfg,
	}, nil
}

// Route drives one query to a terminal outcome. Identical concurrent
// queries share a single routing run.
func (r *Router) Route(ctx context.Context, query string) *Outcome {
	v, _, shared := r.group.Do(normalizeQuery(query), func() (any, error) {
		return r.routeOnce(ctx, query), nil
	})
	outcome := v.(*Outcome)
	if shared {
		r.logger.Debug("query deduplicated in flight", zap.String("query_id", outcome.QueryID))
	}
	return outcome
}

func (r *Router) routeOnce(ctx context.Context, query string) *Outcome {
	started := time.Now()
	o := &Outcome{QueryID: uuid.NewString(), State: StateReceived}

	ctx, span := r.tracer.Start(ctx, "router.Route",
		trace.WithAttributes(attribute.String("query.id", o.QueryID)))
	defer span.End()
	defer func() {
		o.Elapsed = time.Since(started)
		if o.Err != nil {
			span.RecordError(o.Err)
			span.SetStatus(codes.Error, string(o.ErrorCode()))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}()

	log := r.logger.With(zap.String("query_id", o.QueryID))

	// 入口防护: 任何校验失败都在分类之前返回, 不触发任何 Agent
	if err := r.checkInput(ctx, query); err != nil {
		log.Info("query rejected by input guard",
			zap.String("code", string(types.GetErrorCode(err))))
		return r.fail(o, err)
	}

	cls := Classify(query)
	span.SetAttributes(
		attribute.String("classify.target", cls.Target),
		attribute.Int("classify.flight_score", cls.FlightScore),
		attribute.Int("classify.hotel_score", cls.HotelScore),
	)
	r.metrics.RecordClassification(cls.Target, cls.Ambiguous)
	if cls.Ambiguous {
		// 两边都有信号时记为 CLASSIFICATION_AMBIGUOUS, 只计数不失败
		log.Debug("ambiguous classification, routing to planner",
			zap.String("signal", string(types.ErrClassificationAmbiguous)),
			zap.Int("flight_score", cls.FlightScore),
			zap.Int("hotel_score", cls.HotelScore))
	}
	log.Debug("query classified",
		zap.String("target", cls.Target),
		zap.Int("flight_score", cls.FlightScore),
		zap.Int("hotel_score", cls.HotelScore))
	if err := r.step(o, StateClassified); err != nil {
		return r.fail(o, err)
	}

	agent, ok := r.agents[cls.Target]
	if !ok {
		return r.fail(o, types.NewError(types.ErrAgentNotFound,
			fmt.Sprintf("no agent registered as %q", cls.Target)))
	}

	depth := 0
	for {
		o.AgentID = agent.ID()
		if err := r.step(o, StateDispatched); err != nil {
			return r.fail(o, err)
		}
		if err := r.step(o, StateSpecialistExecuting); err != nil {
			return r.fail(o, err)
		}

		execStart := time.Now()
		result, err := r.execute(ctx, agent, query)
		if err == nil {
			if serr := r.step(o, StateResolved); serr != nil {
				return r.fail(o, serr)
			}
			o.Result = result
			o.ResponseType = result.Type
			r.metrics.RecordAgentExecution(agent.ID(), "resolved", time.Since(execStart))
			log.Info("query resolved",
				zap.String("agent", agent.ID()),
				zap.String("response_type", string(result.Type)),
				zap.Bool("redelegated", o.Redelegated))
			return o
		}

		directive, isDirective := specialist.AsHandoffDirective(err)
		if !isDirective {
			r.metrics.RecordAgentExecution(agent.ID(), "failed", time.Since(execStart))
			return r.fail(o, err)
		}

		// 深度检查先于来源检查: 转派预算用尽后的任何指令都按超深处理
		if depth >= r.cfg.MaxHandoffDepth {
			return r.fail(o, types.NewError(types.ErrHandoffDepthExceeded,
				fmt.Sprintf("handoff depth limit %d exceeded", r.cfg.MaxHandoffDepth)))
		}
		if agent.ID() != specialist.AgentPlanner {
			return r.fail(o, types.NewError(types.ErrInternalError,
				fmt.Sprintf("agent %q emitted a handoff directive", agent.ID())))
		}
		if directive.Target == specialist.AgentPlanner {
			return r.fail(o, types.NewError(types.ErrInternalError,
				"handoff directive may not name the planner"))
		}
		next, ok := r.agents[directive.Target]
		if !ok {
			return r.fail(o, types.NewError(types.ErrAgentNotFound,
				fmt.Sprintf("handoff directive names unknown agent %q", directive.Target)))
		}

		if serr := r.step(o, StateRedelegated); serr != nil {
			return r.fail(o, serr)
		}
		r.metrics.RecordAgentExecution(agent.ID(), "redelegated", time.Since(execStart))
		log.Info("redelegating query",
			zap.String("from", agent.ID()),
			zap.String("to", next.ID()),
			zap.String("reason", directive.Reason))
		o.Redelegated = true
		depth++
		agent = next
	}
}

// execute runs one specialist call with the per-call timeout, retrying
// once when the failure is transient and retries are enabled.
func (r *Router) execute(ctx context.Context, agent specialist.Agent, query string) (*types.StructuredResult, error) {
	result, err := r.executeOnce(ctx, agent, query)
	if err == nil || !r.cfg.RetryTransient || !isTransient(err) {
		return result, err
	}

	r.metrics.RecordRetry(agent.ID())
	r.logger.Warn("transient completion failure, retrying once",
		zap.String("agent", agent.ID()),
		zap.String("code", string(types.GetErrorCode(err))),
		zap.Error(err))
	return r.executeOnce(ctx, agent, query)
}

func (r *Router) executeOnce(ctx context.Context, agent specialist.Agent, query string) (*types.StructuredResult, error) {
	if r.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.CompletionTimeout)
		defer cancel()
	}
	return agent.Handle(ctx, query)
}

// checkInput runs the guardrail chain. Empty or oversized queries map to
// INVALID_INPUT, blocked keywords and injection attempts to
// GUARDRAILS_VIOLATED.
func (r *Router) checkInput(ctx context.Context, query string) error {
	result, err := r.guard.Validate(ctx, query)
	if err != nil {
		if guardrails.IsTripwire(err) {
			return types.NewError(types.ErrGuardrailsViolated, "query rejected by input guardrails").WithCause(err)
		}
		return types.NewError(types.ErrInternalError, "input validation did not complete").WithCause(err)
	}
	if result.Valid {
		return nil
	}

	msg := "query failed input validation"
	code := types.ErrInvalidInput
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		msg = first.Message
		switch first.Code {
		case guardrails.ErrCodeBlockedKeyword, guardrails.ErrCodeInjectionDetected:
			code = types.ErrGuardrailsViolated
		}
	}
	return types.NewError(code, msg)
}

// step advances the outcome through the transition table.
func (r *Router) step(o *Outcome, to State) error {
	if !CanTransition(o.State, to) {
		return types.NewError(types.ErrInvalidTransition,
			fmt.Sprintf("invalid transition %s -> %s", o.State, to))
	}
	r.metrics.RecordStateTransition(string(o.State), string(to))
	o.State = to
	return nil
}

// fail marks the outcome failed. Reaching failed is legal from every
// non-terminal state; a failure while already terminal keeps the first
// error.
func (r *Router) fail(o *Outcome, err error) *Outcome {
	if o.State.Terminal() {
		r.logger.Error("failure after terminal state",
			zap.String("query_id", o.QueryID),
			zap.String("state", string(o.State)),
			zap.Error(err))
		if o.Err == nil {
			o.Err = err
		}
		return o
	}
	r.metrics.RecordStateTransition(string(o.State), string(StateFailed))
	o.State = StateFailed
	o.Err = err
	r.logger.Warn("query failed",
		zap.String("query_id", o.QueryID),
		zap.String("code", string(o.ErrorCode())),
		zap.Error(err))
	return o
}

// isTransient reports whether a completion failure is worth one retry.
// Handoff directives and schema validation failures never are.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := specialist.AsHandoffDirective(err); ok {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		if typed.Code == types.ErrSchemaValidation {
			return false
		}
		if typed.Retryable {
			return true
		}
		switch typed.Code {
		case types.ErrTimeout, types.ErrUpstreamTimeout, types.ErrRateLimited,
			types.ErrUpstreamError, types.ErrServiceUnavailable, types.ErrProviderUnavailable:
			return true
		}
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalizeQuery is the singleflight key: lowercased with collapsed
// whitespace, so trivially reformatted duplicates share one run.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
