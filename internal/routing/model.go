// Package routing holds the model registry, health tracker, and the
// capability router with failover.
package routing

import "time"

// Capability is a declared model skill. The string values are wire-stable.
type Capability string

const (
	CapabilityTextGeneration  Capability = "text_generation"
	CapabilityChat            Capability = "chat"
	CapabilityCodeGeneration  Capability = "code_generation"
	CapabilityEmbeddings      Capability = "embeddings"
	CapabilityImageGeneration Capability = "image_generation"
	CapabilityFunctionCalling Capability = "function_calling"
)

// Capabilities returns every known capability.
func Capabilities() []Capability {
	return []Capability{
		CapabilityTextGeneration, CapabilityChat, CapabilityCodeGeneration,
		CapabilityEmbeddings, CapabilityImageGeneration, CapabilityFunctionCalling,
	}
}

// ParseCapability validates a wire value against the known set.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities() {
		if string(c) == s {
			return c, nil
		}
	}
	valid := make([]string, 0, len(Capabilities()))
	for _, c := range Capabilities() {
		valid = append(valid, string(c))
	}
	return "", &InvalidValueError{Field: "capability", Value: s, Valid: valid}
}

// Provider identifies a model vendor.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGoogle      Provider = "google"
	ProviderAzure       Provider = "azure"
	ProviderAWSBedrock  Provider = "aws_bedrock"
	ProviderCohere      Provider = "cohere"
	ProviderHuggingFace Provider = "huggingface"
	ProviderLocal       Provider = "local"
)

// Status is a model's live health state.
type Status string

const (
	StatusHealthy     Status = "HEALTHY"
	StatusDegraded    Status = "DEGRADED"
	StatusUnavailable Status = "UNAVAILABLE"
	StatusMaintenance Status = "MAINTENANCE"
)

// ModelConfig is admin-managed model metadata. Long-lived; health state
// lives separately in HealthCheck.
type ModelConfig struct {
	ID                 string       `json:"model_id"`
	Provider           Provider     `json:"provider"`
	Endpoint           string       `json:"endpoint"`
	Capabilities       []Capability `json:"capabilities"`
	MaxTokens          int          `json:"max_tokens"`
	CostPer1KTokens    float64      `json:"cost_per_1k_tokens"`
	LatencyThresholdMS int          `json:"latency_threshold_ms"`
	Priority           int          `json:"priority"` // 0-100, higher = preferred
	Enabled            bool         `json:"enabled"`
}

// HasCapability reports whether the model declares the capability.
func (c ModelConfig) HasCapability(capability Capability) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// HealthCheck is a model's probe-maintained health state. Written only by
// the probe path; read concurrently by the router as a value copy.
type HealthCheck struct {
	ModelID             string    `json:"model_id"`
	Status              Status    `json:"status"`
	LatencyMS           int       `json:"latency_ms"`
	SuccessRate         float64   `json:"success_rate"` // 0.0-1.0
	LastCheck           time.Time `json:"last_check"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// RoutingDecision is the per-call outcome of Route. Never persisted.
type RoutingDecision struct {
	SelectedModel      string   `json:"selected_model"`
	Provider           Provider `json:"provider"`
	Reason             string   `json:"reason"`
	FailoverModels     []string `json:"failover_models"`
	EstimatedLatencyMS int      `json:"estimated_latency_ms"`
	EstimatedCost      float64  `json:"estimated_cost"`
}

// DefaultModels returns the built-in model catalogue.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{
			ID:       "gpt-4-turbo",
			Provider: ProviderOpenAI,
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat,
				CapabilityCodeGeneration, CapabilityFunctionCalling,
			},
			MaxTokens:          128000,
			CostPer1KTokens:    0.01,
			LatencyThresholdMS: 5000,
			Priority:           90,
			Enabled:            true,
		},
		{
			ID:       "gpt-3.5-turbo",
			Provider: ProviderOpenAI,
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat, CapabilityFunctionCalling,
			},
			MaxTokens:          16385,
			CostPer1KTokens:    0.0015,
			LatencyThresholdMS: 5000,
			Priority:           70,
			Enabled:            true,
		},
		{
			ID:       "claude-3-opus",
			Provider: ProviderAnthropic,
			Endpoint: "https://api.anthropic.com/v1/messages",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat, CapabilityCodeGeneration,
			},
			MaxTokens:          200000,
			CostPer1KTokens:    0.015,
			LatencyThresholdMS: 5000,
			Priority:           95,
			Enabled:            true,
		},
		{
			ID:       "claude-3-sonnet",
			Provider: ProviderAnthropic,
			Endpoint: "https://api.anthropic.com/v1/messages",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat, CapabilityCodeGeneration,
			},
			MaxTokens:          200000,
			CostPer1KTokens:    0.003,
			LatencyThresholdMS: 5000,
			Priority:           85,
			Enabled:            true,
		},
		{
			ID:       "gemini-pro",
			Provider: ProviderGoogle,
			Endpoint: "https://generativelanguage.googleapis.com/v1/models/gemini-pro:generateContent",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat,
			},
			MaxTokens:          30720,
			CostPer1KTokens:    0.00025,
			LatencyThresholdMS: 5000,
			Priority:           75,
			Enabled:            true,
		},
		{
			ID:       "azure-gpt-4",
			Provider: ProviderAzure,
			Endpoint: "https://example.openai.azure.com/openai/deployments/gpt-4/chat/completions",
			Capabilities: []Capability{
				CapabilityTextGeneration, CapabilityChat, CapabilityCodeGeneration,
			},
			MaxTokens:          128000,
			CostPer1KTokens:    0.01,
			LatencyThresholdMS: 5000,
			Priority:           88,
			Enabled:            true,
		},
	}
}
