package llm

import "go.opentelemetry.io/otel"

const scopeName = "github.com/health-assistant-core/server/internal/agent/llm"

var tracer = otel.Tracer(scopeName)
