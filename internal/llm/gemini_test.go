// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(types.LLMConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not set")
}

func TestNewGeminiName(t *testing.T) {
	client, err := NewGemini(types.LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini:"+DefaultGeminiModel, client.Name())

	client, err = NewGemini(types.LLMConfig{APIKey: "k", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.0-flash", client.Name())
}
