package nodes

import "go.opentelemetry.io/otel"

const scopeName = "github.com/health-assistant-core/server/internal/agent/graph/nodes"

var tracer = otel.Tracer(scopeName)
