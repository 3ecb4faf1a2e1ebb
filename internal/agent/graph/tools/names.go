package tools

const (
	BMICalculatorName    = "bmi_calculator"
	BMRCalculatorName    = "bmr_calculator"
	CalorieEstimatorName = "calorie_estimator"
	LogSummaryName       = "user_log_summary_tool"
	WebSearchName        = "web_search"
)
