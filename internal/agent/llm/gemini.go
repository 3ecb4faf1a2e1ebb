package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/health-assistant-core/server/internal/agent/model"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// GeminiConfig holds the configuration for the Gemini backed client.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Extraction model.ExtractionModelConfig
	Response   model.ResponseModelConfig
}

// NewGeminiClient creates the extraction and response chat models on one
// shared genai client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Extraction answers with JSON only, so thinking output is not requested.
	extraction, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Extraction.Model,
		Temperature: &cfg.Extraction.Temperature,
		MaxTokens:   &cfg.Extraction.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	response, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Response.Model,
		Temperature: &cfg.Response.Temperature,
		MaxTokens:   &cfg.Response.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return NewClient(Models{
		Extraction:     extraction,
		Response:       response,
		ExtractionName: cfg.Extraction.Model,
		ResponseName:   cfg.Response.Model,
	})
}
