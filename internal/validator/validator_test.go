package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

func float(v float64) *float64 { return &v }

func validPaper() *models.Paper {
	return &models.Paper{
		ID: "paper-1",
		Questions: []models.Item{
			{
				ID: "q1", Type: models.TypeMCQ, Marks: 1,
				Options: []models.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B", IsCorrect: true}},
			},
			{
				ID: "q2", Type: models.TypeDescriptive, Marks: 2,
				AnswerRequirement: models.RequirementAnyTwoFrom,
				CorrectAnswers: []models.CorrectAnswer{
					{Answer: "mitochondria", Marks: float(1)},
					{Answer: "ribosome", Marks: float(1)},
				},
			},
			{
				ID: "q3", Marks: 3,
				Parts: []models.Item{
					{ID: "a", Type: models.TypeDescriptive, Marks: 1, RequiresManualMarking: true},
					{ID: "b", Parts: []models.Item{
						{ID: "i", Type: models.TypeDescriptive, Marks: 2, CorrectAnswers: []models.CorrectAnswer{{Answer: "9.8", Unit: "m/s^2"}}},
					}},
				},
			},
		},
	}
}

func TestValidatePaper_Valid(t *testing.T) {
	warnings, err := New().Paper().ValidatePaper(validPaper())
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidatePaper_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Paper)
		field  string
	}{
		{
			name:   "missing id",
			mutate: func(p *models.Paper) { p.ID = "" },
			field:  "id",
		},
		{
			name:   "duplicate question id",
			mutate: func(p *models.Paper) { p.Questions[1].ID = "q1" },
			field:  "q1",
		},
		{
			name:   "zero marks on answerable item",
			mutate: func(p *models.Paper) { p.Questions[0].Marks = 0 },
			field:  "q1",
		},
		{
			name:   "too few options",
			mutate: func(p *models.Paper) { p.Questions[0].Options = p.Questions[0].Options[:1] },
			field:  "q1",
		},
		{
			name: "too deep",
			mutate: func(p *models.Paper) {
				p.Questions[2].Parts[1].Parts[0].Parts = []models.Item{{ID: "x", Type: models.TypeDescriptive, Marks: 1}}
			},
			field: "q3/b/i/x",
		},
		{
			name:   "unknown question type",
			mutate: func(p *models.Paper) { p.Questions[0].Type = "essay" },
			field:  "type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPaper()
			tt.mutate(p)
			_, err := New().Paper().ValidatePaper(p)
			require.Error(t, err)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, len(verrs))
			for i, e := range verrs {
				fields[i] = e.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidatePaper_Warnings(t *testing.T) {
	p := validPaper()
	p.Questions[1].AnswerRequirement = models.RequirementAnyThreeFrom
	p.Questions[1].CorrectAnswers[0].LinkedAlternatives = []string{"ghost"}
	p.Questions[0].Options[1].IsCorrect = false

	warnings, err := New().Paper().ValidatePaper(p)
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	assert.Equal(t, "q1", warnings[0].Path)
	assert.Contains(t, warnings[1].Message, "declares 3 answers but only 2")
	assert.Contains(t, warnings[2].Message, `"ghost"`)
}

func TestValidatePaper_Nil(t *testing.T) {
	_, err := New().Paper().ValidatePaper(nil)
	assert.Error(t, err)
}

func TestValidate_CustomTags(t *testing.T) {
	type request struct {
		Mode string `json:"mode" validate:"required,session_mode"`
		Key  string `json:"key" validate:"omitempty,session_key"`
	}
	v := New()

	assert.NoError(t, v.Validate(request{Mode: "qa", Key: "left"}))

	err := v.Validate(request{Mode: "exam", Key: "up"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "mode", verrs[0].Field)
	assert.Equal(t, "must be a valid session mode (practice, timed, review, qa)", verrs[0].Message)
	assert.Equal(t, "key", verrs[1].Field)
}
