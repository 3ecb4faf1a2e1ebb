package nodes

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/model"
)

var goalAliases = map[string]string{
	"lose":         "lose_weight",
	"lose_weight":  "lose_weight",
	"weight_loss":  "lose_weight",
	"gain":         "gain_weight",
	"gain_weight":  "gain_weight",
	"weight_gain":  "gain_weight",
	"maintain":     "maintain_weight",
	"stay_healthy": "maintain_weight",
}

// SanitizeArguments normalizes model supplied arguments before a tool runs.
// It is best effort: values that cannot be fixed are passed through and the
// tool reports the problem. Arguments that did not decode are returned raw.
func SanitizeArguments(call model.ToolCall, userID string) string {
	if call.Arguments == nil {
		if strings.TrimSpace(call.RawArguments) == "" {
			call.Arguments = map[string]any{}
		} else {
			return call.RawArguments
		}
	}

	m := make(map[string]any, len(call.Arguments))
	for k, v := range call.Arguments {
		m[k] = v
	}

	switch call.Name {
	case tools.BMICalculatorName:
		coerceNumber(m, "weight_kg")
		coerceNumber(m, "height_m")
	case tools.BMRCalculatorName:
		coerceInt(m, "age_years", 0, math.MaxInt32)
		coerceEnum(m, "gender", nil)
		coerceNumber(m, "weight_kg")
		coerceNumber(m, "height_cm")
	case tools.CalorieEstimatorName:
		coerceNumber(m, "bmr")
		coerceEnum(m, "activity_level", nil)
		coerceEnum(m, "goal", goalAliases)
	case tools.LogSummaryName:
		// The authenticated user always wins over a model supplied id.
		coerceString(m, "user_id")
		if userID != "" {
			m["user_id"] = userID
		}
		if _, ok := m["days"]; ok {
			coerceInt(m, "days", 1, tools.MaxSummaryDays)
		}
	case tools.WebSearchName:
		coerceString(m, "query")
		if _, ok := m["max_results"]; ok {
			coerceInt(m, "max_results", 1, 10)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		// fallback to original
		return call.RawArguments
	}
	return string(b)
}

func coerceNumber(m map[string]any, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			m[key] = f
		}
	}
}

func coerceInt(m map[string]any, key string, min, max int) {
	switch vv := m[key].(type) {
	case float64:
		m[key] = clampInt(int(math.Round(vv)), min, max)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64); err == nil {
			m[key] = clampInt(int(math.Round(f)), min, max)
		} else {
			delete(m, key)
		}
	default:
		delete(m, key)
	}
}

// coerceEnum lower-cases the value, maps spaces and hyphens to underscores
// and applies aliases when given.
func coerceEnum(m map[string]any, key string, aliases map[string]string) {
	s, ok := m[key].(string)
	if !ok {
		return
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if alias, ok := aliases[s]; ok {
		s = alias
	}
	m[key] = s
}

func coerceString(m map[string]any, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	switch vv := v.(type) {
	case string:
		m[key] = strings.TrimSpace(vv)
	default:
		m[key] = strings.TrimSpace(fmt.Sprint(v))
	}
}
