package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/health-assistant-core/server/internal/agent/model"
)

const contextDateLayout = "2006-01-02"

// SummarizeContext renders the user context shared by the planning and agent
// prompts. A nil or empty context yields "".
func SummarizeContext(uc *model.UserContext) string {
	if uc == nil {
		return ""
	}
	var b strings.Builder

	if p := uc.Profile; p != nil {
		fmt.Fprintf(&b, "User: %s, Email: %s.\n", orNA(p.Name), orNA(p.Email))
	}
	if g := uc.Goal; g != nil {
		fmt.Fprintf(&b, "Current Goal: %s. Analysis: %s.\n", orNA(g.Description), analysisText(g.Analysis))
		if details := goalDetails(g); details != "" {
			fmt.Fprintf(&b, "Goal details: %s.\n", details)
		}
	}
	if n := len(uc.RecentLogs); n > 0 {
		entries := make([]string, 0, n)
		for _, l := range uc.RecentLogs {
			entries = append(entries, fmt.Sprintf("%s steps %d, sleep %.1fh, water %.1fL, calories %.0f",
				dateOf(l.CreatedAt.Format(contextDateLayout)), l.Steps, l.SleepHours, l.WaterIntakeLiters, l.Calories))
		}
		fmt.Fprintf(&b, "Recent Logs (last %d entries): %s.\n", n, strings.Join(entries, "; "))
	}
	if n := len(uc.RecentFoodEntries); n > 0 {
		entries := make([]string, 0, n)
		for _, f := range uc.RecentFoodEntries {
			entries = append(entries, fmt.Sprintf("%s %s (%d kcal)", dateOf(f.CreatedAt.Format(contextDateLayout)), f.ItemName, f.Calories))
		}
		fmt.Fprintf(&b, "Recent Food Entries (last %d entries): %s.\n", n, strings.Join(entries, "; "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func goalDetails(g *model.Goal) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+" "+value)
		}
	}
	if g.Type != "" {
		add("type", string(g.Type))
	}
	if g.CurrentWeightKg > 0 {
		add("current weight", fmt.Sprintf("%gkg", g.CurrentWeightKg))
	}
	if g.TargetWeightKg > 0 {
		add("target weight", fmt.Sprintf("%gkg", g.TargetWeightKg))
	}
	if g.HeightCm > 0 {
		add("height", fmt.Sprintf("%gcm", g.HeightCm))
	}
	if g.Age > 0 {
		add("age", fmt.Sprintf("%d", g.Age))
	}
	add("gender", g.Gender)
	add("timeframe", g.Timeframe)
	add("activity level", g.ActivityLevel)
	add("preferences", g.Preferences)
	add("allergies", g.Allergies)
	return strings.Join(parts, ", ")
}

func analysisText(a map[string]any) string {
	if len(a) == 0 {
		return "N/A"
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "N/A"
	}
	return string(raw)
}

// dateOf drops the zero time so entries without a timestamp stay readable.
func dateOf(s string) string {
	if s == "0001-01-01" {
		return "-"
	}
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
