package models

// GradeBand maps a minimum percentage to a letter grade.
type GradeBand struct {
	MinPercentage float64 `json:"min_percentage"`
	Grade         string  `json:"grade"`
}

// DefaultGradeBands must stay sorted by MinPercentage, highest first.
var DefaultGradeBands = []GradeBand{
	{MinPercentage: 90, Grade: "A+"},
	{MinPercentage: 80, Grade: "A"},
	{MinPercentage: 70, Grade: "B"},
	{MinPercentage: 60, Grade: "C"},
	{MinPercentage: 50, Grade: "D"},
	{MinPercentage: 0, Grade: "F"},
}
