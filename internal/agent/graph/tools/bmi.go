package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/health-assistant-core/server/internal/core/error"
)

// ===================================
// BMI Calculator Tool
// ===================================

type BMIInput struct {
	WeightKg float64 `json:"weight_kg"`
	HeightM  float64 `json:"height_m"`
}

type BMIResult struct {
	BMI      float64
	Category string
}

// CalculateBMI returns weight / height², rounded to one decimal, and its category.
func CalculateBMI(weightKg, heightM float64) (BMIResult, error) {
	if heightM <= 0 {
		return BMIResult{}, errx.Invalid("height must be greater than 0, got %v", heightM)
	}
	if weightKg <= 0 {
		return BMIResult{}, errx.Invalid("weight must be greater than 0, got %v", weightKg)
	}

	bmi := math.Round(weightKg/(heightM*heightM)*10) / 10
	return BMIResult{BMI: bmi, Category: bmiCategory(bmi)}, nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obesity"
	}
}

func (r BMIResult) String() string {
	return fmt.Sprintf("Your BMI is %.1f (%s).", r.BMI, r.Category)
}

func NewBMITool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: BMICalculatorName,
			Desc: "Calculates Body Mass Index (BMI) from weight in kilograms and height in meters, and reports the BMI category.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"weight_kg": {
					Type:     schema.Number,
					Desc:     "Body weight in kilograms, e.g. 70",
					Required: true,
				},
				"height_m": {
					Type:     schema.Number,
					Desc:     "Height in meters, e.g. 1.75",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *BMIInput) (string, error) {
			res, err := CalculateBMI(in.WeightKg, in.HeightM)
			if err != nil {
				return ErrorObservation(BMICalculatorName, err), nil
			}
			return res.String(), nil
		},
	)
}
