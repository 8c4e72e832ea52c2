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

// Package llm is the boundary to the code-synthesis oracle. One prompt in,
// one completion out; no retries and no caching live here. A transport
// failure is returned to the caller and aborts the run; the pipeline's
// self-correction loop only ever repairs generated code, never oracle
// availability.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the interface for calling the oracle.
type Generator interface {
	// Call calls the LLM with the input and returns the raw completion text.
	Call(ctx context.Context, input string) (string, error)
}

// ChatModel is the interface for the LLM backend.
type ChatModel interface {
	model.ToolCallingChatModel
}

type ModelConfig struct {
	Name        string        `json:"name"` // alias of the config, not endpoint!
	APIType     ModelType     `json:"type"`
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	ModelName   string        `json:"model_name"` // the endpoint of the model, like `claude-sonnet-4-20250514`
	Temperature *float32      `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"` // HTTP request timeout, default: 600s
}

type ModelType string

const (
	ModelTypeUnknown   ModelType = ""
	ModelTypeOllama    ModelType = "ollama"
	ModelTypeARK       ModelType = "ark"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeClaude    ModelType = "claude"
	ModelTypeDashScope ModelType = "dashscope"
	ModelTypeDeepSeek  ModelType = "deepseek"
)

func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "ollama":
		return ModelTypeOllama
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "dashscope", "qwen", "tongyi":
		return ModelTypeDashScope
	case "deepseek":
		return ModelTypeDeepSeek
	}
	return ModelTypeUnknown
}

// LoadModelConfig reads a ModelConfig from a JSON file and fills the API key
// from the environment when the file leaves it empty.
func LoadModelConfig(path string) (ModelConfig, error) {
	var cfg ModelConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read model config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse model config %s: %w", path, err)
	}
	cfg.APIKey = ResolveAPIKey(cfg)
	return cfg, nil
}

// ResolveAPIKey returns the configured key, or falls back to SCRUB_API_KEY
// and then the provider's conventional environment variable.
func ResolveAPIKey(cfg ModelConfig) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	if k := os.Getenv("SCRUB_API_KEY"); k != "" {
		return k
	}
	switch cfg.APIType {
	case ModelTypeOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ModelTypeClaude:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ModelTypeARK:
		return os.Getenv("ARK_API_KEY")
	case ModelTypeDashScope:
		return os.Getenv("DASHSCOPE_API_KEY")
	case ModelTypeDeepSeek:
		return os.Getenv("DEEPSEEK_API_KEY")
	}
	return ""
}

// Client adapts an eino ChatModel to the Generator contract: exactly one
// round trip per Call.
type Client struct {
	model ChatModel
}

// NewClient builds a Generator from a model config.
func NewClient(cfg ModelConfig) (*Client, error) {
	cm, err := NewChatModel(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{model: cm}, nil
}

// NewClientWithModel wraps an existing ChatModel, mainly for tests.
func NewClientWithModel(cm ChatModel) *Client {
	return &Client{model: cm}
}

// Call implements Generator.
func (c *Client) Call(ctx context.Context, input string) (string, error) {
	resp, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(input)})
	if err != nil {
		return "", fmt.Errorf("LLM Generate failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("LLM returned nil response")
	}
	return resp.Content, nil
}
