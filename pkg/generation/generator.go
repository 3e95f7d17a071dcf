// Package generation adapts an llm.LLMProvider to the knowledge.Generator
// hand-off.
package generation

import (
	"context"
	"fmt"
	"strings"

	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/llm"
)

// Apology is the assistant reply recorded when generation fails
const Apology = "Sorry, I couldn't generate an answer right now. Your question has been saved, please try again in a moment."

type LLMGenerator struct {
	provider llm.LLMProvider
	options  []llm.Option
}

var _ knowledge.Generator = (*LLMGenerator)(nil)

func NewLLMGenerator(provider llm.LLMProvider, options ...llm.Option) *LLMGenerator {
	return &LLMGenerator{
		provider: provider,
		options:  options,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, bundle *knowledge.ContextBundle, history []knowledge.Turn, userQuery string) (string, error) {
	messages := BuildMessages(bundle, history, userQuery)

	reply, err := g.provider.Chat(ctx, messages, g.options...)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("generate reply: empty completion")
	}
	return reply, nil
}

// BuildMessages is system prompt, then past turns, then the new question
func BuildMessages(bundle *knowledge.ContextBundle, history []knowledge.Turn, userQuery string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: NewPromptBuilder(bundle).Build()})

	for _, t := range history {
		role := llm.RoleUser
		if t.Role == llm.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: userQuery})
}
