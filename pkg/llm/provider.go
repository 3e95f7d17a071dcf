package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one provider-agnostic chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Option tunes a single call
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // overrides the provider default
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// Apply folds opts over the given defaults
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider is the contract for any text-generation backend
type LLMProvider interface {
	// Chat sends a conversation to the model and returns the completion
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
