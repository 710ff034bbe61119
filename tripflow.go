// Package tripflow provides a top-level convenience entry point for
// assembling the travel query pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/tripflow"
//
//	cfg, _ := config.NewLoader().WithConfigPath("config.yaml").Load()
//	router, err := tripflow.New(cfg, tripflow.WithLogger(logger))
//	outcome := router.Route(ctx, "find me a hotel in Paris")
//
// New wires the OpenAI-compatible completion provider, the shared schema
// registry, the three specialist agents, the input guardrail chain and the
// handoff router from a single config.Config. Use the options to inject a
// pre-built provider (tests), a logger, or a metrics collector.
package tripflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/agent/guardrails"
	"github.com/BaSui01/tripflow/agent/handoff"
	"github.com/BaSui01/tripflow/agent/specialist"
	"github.com/BaSui01/tripflow/agent/structured"
	"github.com/BaSui01/tripflow/config"
	"github.com/BaSui01/tripflow/internal/metrics"
	"github.com/BaSui01/tripflow/llm"
	"github.com/BaSui01/tripflow/llm/openaicompat"
	"github.com/BaSui01/tripflow/llm/tokenizer"
	"github.com/BaSui01/tripflow/types"
)

// 已知模型的 tiktoken 分词器只登记一次，之后预算检查走精确计数
var registerTokenizersOnce sync.Once

// Option configures the pipeline created by [New].
type Option func(*options)

type options struct {
	provider llm.Provider
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// WithProvider sets a pre-built completion provider. When unset, New
// builds one from cfg.LLM via [NewProvider].
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the Prometheus collector. Completion calls and router
// activity are recorded against it; nil records nothing.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// NewProvider builds the OpenAI-compatible completion provider from the
// LLM section of the configuration.
func NewProvider(cfg config.LLMConfig, logger *zap.Logger) llm.Provider {
	return openaicompat.New(openaicompat.Config{
		ProviderName: cfg.Provider,
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		DefaultModel: cfg.Model,
		Timeout:      cfg.Timeout,
	}, logger)
}

// New assembles a ready-to-serve query router from the configuration.
func New(cfg *config.Config, opts ...Option) (*handoff.Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tripflow: config is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	registerTokenizersOnce.Do(tokenizer.RegisterDefaultTokenizers)

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := o.provider
	if provider == nil {
		provider = NewProvider(cfg.LLM, logger)
	}
	if o.metrics != nil {
		provider = &meteredProvider{Provider: provider, metrics: o.metrics}
	}

	// 三个专家共享同一 registry，schema 只编译一次
	registry := structured.NewRegistry()

	guard := guardrails.NewInputChain(&guardrails.InputConfig{
		MaxQueryLength:     cfg.Guardrails.MaxQueryLength,
		BlockedKeywords:    cfg.Guardrails.BlockedKeywords,
		InjectionDetection: cfg.Guardrails.InjectionDetection,
	})

	return handoff.NewRouter(handoff.Options{
		Planner: specialist.NewPlannerAgent(agentOptions(cfg, cfg.Agents.Planner, provider, registry, logger)),
		Flight:  specialist.NewFlightAgent(agentOptions(cfg, cfg.Agents.Flight, provider, registry, logger)),
		Hotel:   specialist.NewHotelAgent(agentOptions(cfg, cfg.Agents.Hotel, provider, registry, logger)),
		Guard:   guard,
		Logger:  logger,
		Metrics: o.metrics,
		Config: handoff.Config{
			CompletionTimeout: cfg.Router.CompletionTimeout,
			MaxHandoffDepth:   cfg.Router.MaxHandoffDepth,
			RetryTransient:    cfg.Router.RetryTransient,
		},
	})
}

// agentOptions maps one agent's config section onto specialist options.
// An empty per-agent model falls back to the default LLM model.
func agentOptions(cfg *config.Config, ac config.AgentConfig, provider llm.Provider, registry *structured.Registry, logger *zap.Logger) specialist.Options {
	model := ac.Model
	if model == "" {
		model = cfg.LLM.Model
	}
	return specialist.Options{
		Provider:        provider,
		Registry:        registry,
		Logger:          logger,
		Model:           model,
		Temperature:     float32(ac.Temperature),
		MaxTokens:       ac.MaxTokens,
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
	}
}

// meteredProvider records one completion metric per call on the wrapped
// provider. The status label is "success" or the lowercased error code.
type meteredProvider struct {
	llm.Provider
	metrics *metrics.Collector
}

func (p *meteredProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	started := time.Now()
	resp, err := p.Provider.Completion(ctx, req)

	status := "success"
	var promptTokens, completionTokens int
	if err != nil {
		status = strings.ToLower(string(types.GetErrorCode(err)))
		if status == "" {
			status = "error"
		}
	} else {
		promptTokens = resp.Usage.PromptTokens
		completionTokens = resp.Usage.CompletionTokens
	}
	p.metrics.RecordCompletion(p.Provider.Name(), req.Model, status, time.Since(started), promptTokens, completionTokens)
	return resp, err
}
