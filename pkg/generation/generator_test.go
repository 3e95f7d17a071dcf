package generation

import (
	"context"
	"errors"
	"testing"

	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply string
	err   error
	seen  []llm.Message
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.seen = history
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func bundle() *knowledge.ContextBundle {
	return &knowledge.ContextBundle{
		Entries: []knowledge.BundleEntry{
			{Type: knowledge.SourceStakeholder, Title: "Dana Whitfield", Snippet: "wants a renewal meeting", Recency: "today"},
			{Type: knowledge.SourceNote, Title: "Weekly sync", Recency: "2 days ago"},
		},
		Preamble: "Found 1 note and 1 stakeholder.",
	}
}

func TestBuildMessagesOrder(t *testing.T) {
	history := []knowledge.Turn{
		{Role: "user", Content: "who is Dana?"},
		{Role: "assistant", Content: "A stakeholder."},
	}

	msgs := BuildMessages(bundle(), history, "when do we meet?")
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Found 1 note and 1 stakeholder.")
	assert.Contains(t, msgs[0].Content, "1. [stakeholder] Dana Whitfield (today)")
	assert.Contains(t, msgs[0].Content, "wants a renewal meeting")
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "when do we meet?"}, msgs[3])
}

func TestPromptWithoutRecords(t *testing.T) {
	prompt := NewPromptBuilder(&knowledge.ContextBundle{}).Build()
	assert.Contains(t, prompt, "No matching records were found.")
}

func TestGenerate(t *testing.T) {
	p := &fakeProvider{reply: "  Thursday at 10.\n"}
	out, err := NewLLMGenerator(p).Generate(context.Background(), bundle(), nil, "when?")
	require.NoError(t, err)
	assert.Equal(t, "Thursday at 10.", out)
	assert.Len(t, p.seen, 2)
}

func TestGenerateErrors(t *testing.T) {
	_, err := NewLLMGenerator(&fakeProvider{err: errors.New("connection refused")}).Generate(context.Background(), bundle(), nil, "q")
	assert.ErrorContains(t, err, "connection refused")

	_, err = NewLLMGenerator(&fakeProvider{reply: "   "}).Generate(context.Background(), bundle(), nil, "q")
	assert.Error(t, err)
}
