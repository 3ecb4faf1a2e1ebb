package model

import "time"

// ================ Config ================
type EngineConfig struct {
	MaxToolRounds   int           `envconfig:"ENGINE_MAX_TOOL_ROUNDS" default:"5"`
	HistoryMaxTurns int           `envconfig:"ENGINE_HISTORY_MAX_TURNS" default:"10"`
	TurnTimeout     time.Duration `envconfig:"ENGINE_TURN_TIMEOUT" default:"60s"`
}

type SessionConfig struct {
	TTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.1"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
}

type SearchConfig struct {
	APIKey     string `envconfig:"TAVILY_API_KEY"`
	BaseURL    string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	MaxResults int    `envconfig:"TAVILY_MAX_RESULTS" default:"3"`
}

// Enabled reports whether the optional web search tool should be registered.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != ""
}
