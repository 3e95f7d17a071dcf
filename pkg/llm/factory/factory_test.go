package factory

import (
	"testing"

	"dashboard-assistant-be/pkg/llm/huggingface"
	"dashboard-assistant-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(ProviderConfig{Provider: "ollama", Model: "qwen2.5:3b"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider(ProviderConfig{Provider: "huggingface", Model: "m", APIKey: "hf_x"})
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	_, err = NewLLMProvider(ProviderConfig{Provider: "huggingface", Model: "m"})
	assert.Error(t, err)

	_, err = NewLLMProvider(ProviderConfig{Provider: "gemini"})
	assert.Error(t, err)
}
