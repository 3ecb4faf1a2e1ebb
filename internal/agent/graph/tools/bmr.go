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
// BMR Calculator Tool
// ===================================

type BMRInput struct {
	AgeYears int     `json:"age_years"`
	Gender   string  `json:"gender"`
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
}

// CalculateBMR uses the Mifflin-St Jeor equation:
//
//	10·weight + 6.25·height − 5·age + 5   (male)
//	10·weight + 6.25·height − 5·age − 161 (female)
func CalculateBMR(ageYears int, gender string, weightKg, heightCm float64) (int, error) {
	if ageYears <= 0 {
		return 0, errx.Invalid("age must be greater than 0, got %d", ageYears)
	}
	if weightKg <= 0 {
		return 0, errx.Invalid("weight must be greater than 0, got %v", weightKg)
	}
	if heightCm <= 0 {
		return 0, errx.Invalid("height must be greater than 0, got %v", heightCm)
	}

	base := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		base += 5
	case "female":
		base -= 161
	default:
		return 0, errx.Invalid("gender must be 'male' or 'female', got %q", gender)
	}
	return int(math.Round(base)), nil
}

func NewBMRTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: BMRCalculatorName,
			Desc: "Calculates Basal Metabolic Rate (BMR) in calories/day using the Mifflin-St Jeor equation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"age_years": {
					Type:     schema.Integer,
					Desc:     "Age in years",
					Required: true,
				},
				"gender": {
					Type:     schema.String,
					Desc:     "Biological sex used by the equation",
					Enum:     []string{"male", "female"},
					Required: true,
				},
				"weight_kg": {
					Type:     schema.Number,
					Desc:     "Body weight in kilograms",
					Required: true,
				},
				"height_cm": {
					Type:     schema.Number,
					Desc:     "Height in centimeters",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *BMRInput) (string, error) {
			bmr, err := CalculateBMR(in.AgeYears, in.Gender, in.WeightKg, in.HeightCm)
			if err != nil {
				return ErrorObservation(BMRCalculatorName, err), nil
			}
			return fmt.Sprintf("Your estimated BMR is %d calories/day.", bmr), nil
		},
	)
}
