package results

import "github.com/SAP-F-2025/exam-session-engine/internal/models"

// GradeFor maps a percentage onto the default bands.
func GradeFor(percentage float64) string {
	return GradeWithBands(percentage, models.DefaultGradeBands)
}

// GradeWithBands expects bands ordered highest threshold first.
func GradeWithBands(percentage float64, bands []models.GradeBand) string {
	for _, b := range bands {
		if percentage >= b.MinPercentage {
			return b.Grade
		}
	}
	if len(bands) == 0 {
		return ""
	}
	return bands[len(bands)-1].Grade
}
