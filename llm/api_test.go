/**
 * Copyright 2025 Scrub Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelType(t *testing.T) {
	cases := map[string]ModelType{
		"openai":    ModelTypeOpenAI,
		"GPT":       ModelTypeOpenAI,
		"claude":    ModelTypeClaude,
		"anthropic": ModelTypeClaude,
		"ollama":    ModelTypeOllama,
		"ark":       ModelTypeARK,
		"doubao":    ModelTypeARK,
		"qwen":      ModelTypeDashScope,
		"dashscope": ModelTypeDashScope,
		"deepseek":  ModelTypeDeepSeek,
		"groq":      ModelTypeUnknown,
		"":          ModelTypeUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, NewModelType(in), "input %q", in)
	}
}

func TestLoadModelConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	cfg := `{"name":"default","type":"openai","model_name":"gpt-4o","api_key":"sk-test","base_url":"https://example.invalid/v1"}`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	got, err := LoadModelConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModelTypeOpenAI, got.APIType)
	assert.Equal(t, "gpt-4o", got.ModelName)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "https://example.invalid/v1", got.BaseURL)
}

func TestLoadModelConfigMissingFile(t *testing.T) {
	_, err := LoadModelConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("SCRUB_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	// explicit key wins
	assert.Equal(t, "explicit", ResolveAPIKey(ModelConfig{APIKey: "explicit"}))

	// SCRUB_API_KEY beats the provider variable
	t.Setenv("SCRUB_API_KEY", "scrub-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	assert.Equal(t, "scrub-key", ResolveAPIKey(ModelConfig{APIType: ModelTypeOpenAI}))

	// provider variable as last resort
	t.Setenv("SCRUB_API_KEY", "")
	assert.Equal(t, "openai-key", ResolveAPIKey(ModelConfig{APIType: ModelTypeOpenAI}))

	t.Setenv("ANTHROPIC_API_KEY", "claude-key")
	assert.Equal(t, "claude-key", ResolveAPIKey(ModelConfig{APIType: ModelTypeClaude}))

	// unknown provider with nothing set
	assert.Equal(t, "", ResolveAPIKey(ModelConfig{APIType: ModelTypeOllama}))
}
