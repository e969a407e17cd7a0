// Package llm provides the upstream generative-API caller and its outcome classification.
// Callers hand it one prompt and one key; it never retries and never mutates shared state.
package llm

import "time"

// Transport selects how the upstream is reached.
type Transport string

const (
	// TransportREST posts the documented JSON body to the generateContent endpoint.
	TransportREST Transport = "rest"
	// TransportSDK goes through the official Gemini Go SDK.
	TransportSDK Transport = "sdk"
)

// Default upstream settings.
const (
	DefaultModel           = "gemini-2.0-flash"
	DefaultEndpoint        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultPrimaryTimeout  = 15 * time.Second
	DefaultFallbackTimeout = 20 * time.Second
)

// Config holds the upstream configuration shared by both key tiers.
type Config struct {
	Transport       Transport
	Model           string
	Endpoint        string
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration
}

// DefaultConfig returns the default upstream configuration.
func DefaultConfig() *Config {
	return &Config{
		Transport:       TransportREST,
		Model:           DefaultModel,
		Endpoint:        DefaultEndpoint,
		PrimaryTimeout:  DefaultPrimaryTimeout,
		FallbackTimeout: DefaultFallbackTimeout,
	}
}

// WithModel returns a copy of the config using a different model.
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Model = model
	return &out
}

// GenerationMode selects the generation parameters for a call.
type GenerationMode string

const (
	// ModeStandard is used for free-form section text.
	ModeStandard GenerationMode = "standard"
	// ModeOneWord is used for single-token skill generation.
	ModeOneWord GenerationMode = "one_word"
)

// Temperature returns the sampling temperature for the mode.
func (m GenerationMode) Temperature() float32 {
	if m == ModeOneWord {
		return 0.8
	}
	return 0.7
}

// MaxOutputTokens returns the output token ceiling for the mode.
func (m GenerationMode) MaxOutputTokens() int32 {
	if m == ModeOneWord {
		return 10
	}
	return 1024
}
