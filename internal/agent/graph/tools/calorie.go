package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/health-assistant-core/server/internal/core/error"
)

// ===================================
// Calorie Estimator Tool
// ===================================

const calorieAdjustment = 500

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// ActivityLevels in ascending order of intensity.
var ActivityLevels = []string{"sedentary", "light", "moderate", "active", "very_active"}

var CalorieGoals = []string{"lose_weight", "gain_weight", "maintain_weight"}

type CalorieInput struct {
	BMR           float64 `json:"bmr"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
}

type CalorieEstimate struct {
	Goal        string
	Maintenance int
	Target      int
}

// EstimateCalories scales bmr by the activity multiplier and applies a ±500
// calorie adjustment for the lose_weight and gain_weight goals.
func EstimateCalories(bmr float64, activityLevel, goal string) (CalorieEstimate, error) {
	if bmr <= 0 {
		return CalorieEstimate{}, errx.Invalid("bmr must be greater than 0, got %v", bmr)
	}
	multiplier, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(activityLevel))]
	if !ok {
		return CalorieEstimate{}, errx.Invalid("unknown activity level %q, expected one of %s", activityLevel, strings.Join(ActivityLevels, ", "))
	}

	maintenance := bmr * multiplier
	est := CalorieEstimate{Goal: strings.ToLower(strings.TrimSpace(goal)), Maintenance: int(math.Round(maintenance))}
	switch est.Goal {
	case "lose_weight":
		est.Target = int(math.Round(maintenance - calorieAdjustment))
	case "gain_weight":
		est.Target = int(math.Round(maintenance + calorieAdjustment))
	case "maintain_weight":
		est.Target = est.Maintenance
	default:
		return CalorieEstimate{}, errx.Invalid("unknown goal %q, expected one of %s", goal, strings.Join(CalorieGoals, ", "))
	}
	return est, nil
}

func (e CalorieEstimate) String() string {
	switch e.Goal {
	case "lose_weight":
		return fmt.Sprintf("To lose weight, aim for approximately %d calories/day. This is based on a %d calorie deficit from your maintenance of %d calories.", e.Target, calorieAdjustment, e.Maintenance)
	case "gain_weight":
		return fmt.Sprintf("To gain weight, aim for approximately %d calories/day. This is based on a %d calorie surplus from your maintenance of %d calories.", e.Target, calorieAdjustment, e.Maintenance)
	default:
		return fmt.Sprintf("To maintain your current weight, your estimated daily calorie need is %d calories/day.", e.Maintenance)
	}
}

func NewCalorieTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: CalorieEstimatorName,
			Desc: "Estimates daily calorie needs from BMR, activity level and weight goal.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"bmr": {
					Type:     schema.Number,
					Desc:     "Basal Metabolic Rate in calories/day, e.g. the output of bmr_calculator",
					Required: true,
				},
				"activity_level": {
					Type:     schema.String,
					Desc:     "How active the user is",
					Enum:     ActivityLevels,
					Required: true,
				},
				"goal": {
					Type:     schema.String,
					Desc:     "Weight goal",
					Enum:     CalorieGoals,
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CalorieInput) (string, error) {
			est, err := EstimateCalories(in.BMR, in.ActivityLevel, in.Goal)
			if err != nil {
				return ErrorObservation(CalorieEstimatorName, err), nil
			}
			return est.String(), nil
		},
	)
}
