package tools

import "go.opentelemetry.io/otel"

const scopeName = "github.com/health-assistant-core/server/internal/agent/graph/tools"

var tracer = otel.Tracer(scopeName)
