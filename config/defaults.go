// =============================================================================
// ⚙️ TripFlow 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回带有合理默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9091,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    10,
			RateLimitBurst:  20,
		},
		Router: RouterConfig{
			CompletionTimeout: 30 * time.Second,
			MaxHandoffDepth:   1,
			RetryTransient:    true,
			CacheTTL:          5 * time.Minute,
		},
		Agents: AgentsConfig{
			Planner: AgentConfig{
				Temperature: 0.7,
				MaxTokens:   1024,
			},
			Flight: AgentConfig{
				Temperature: 0.3,
				MaxTokens:   512,
			},
			Hotel: AgentConfig{
				Temperature: 0.3,
				MaxTokens:   512,
			},
		},
		LLM: LLMConfig{
			Provider: "openrouter",
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "deepseek/deepseek-chat-v3-0324:free",
			Timeout:  60 * time.Second,
		},
		Guardrails: GuardrailsConfig{
			MaxQueryLength:     2000,
			BlockedKeywords:    nil,
			InjectionDetection: true,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			DefaultTTL:   5 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Database: DatabaseConfig{
			Enabled:         false,
			Driver:          "sqlite",
			Name:            "tripflow.db",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "tripflow",
			SampleRate:   0.1,
		},
	}
}
