package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

func f64(v float64) *float64 { return &v }

func mcqItem(req models.AnswerRequirement, correct ...string) *models.Item {
	item := &models.Item{
		ID:                "q1",
		Marks:             2,
		Type:              models.TypeMCQ,
		AnswerRequirement: req,
		Options: []models.Option{
			{ID: "o3", Text: "Neptune", Position: 2},
			{ID: "o1", Text: "Mercury", Position: 0},
			{ID: "o2", Text: "Venus", Position: 1},
			{ID: "o4", Text: "Mars", Position: 3},
		},
	}
	for i := range item.Options {
		for _, c := range correct {
			if item.Options[i].ID == c {
				item.Options[i].IsCorrect = true
			}
		}
	}
	return item
}

func textItem(req models.AnswerRequirement, answers ...string) *models.Item {
	item := &models.Item{ID: "q2", Marks: 3, Type: models.TypeDescriptive, AnswerRequirement: req}
	for _, a := range answers {
		item.CorrectAnswers = append(item.CorrectAnswers, models.CorrectAnswer{Answer: a})
	}
	return item
}

func TestValidate_SingleChoice(t *testing.T) {
	item := mcqItem(models.RequirementNone, "o2")

	tests := []struct {
		name    string
		value   models.Value
		correct bool
	}{
		{"option id", models.OptionValue("o2"), true},
		{"derived label", models.TextValue("B"), true},
		{"lowercase label", models.TextValue("b"), true},
		{"option text", models.TextValue("venus"), true},
		{"wrong option", models.OptionValue("o1"), false},
		{"two options selected", models.OptionValue("o2", "o1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, tt.value)
			assert.Equal(t, tt.correct, res.IsCorrect)
			if tt.correct {
				assert.Equal(t, 1.0, res.Score)
				assert.Equal(t, item.Marks, res.MarksAwarded(item.Marks))
			} else {
				assert.Zero(t, res.Score)
			}
		})
	}
}

func TestValidate_DoesNotReorderOptions(t *testing.T) {
	item := mcqItem(models.RequirementNone, "o2")
	Validate(item, models.TextValue("B"))
	assert.Equal(t, "o3", item.Options[0].ID)
}

func TestValidate_TrueFalse(t *testing.T) {
	item := &models.Item{
		ID: "tf", Marks: 1, Type: models.TypeTrueFalse,
		Options: []models.Option{
			{ID: "t", Text: "True", IsCorrect: true, Position: 0},
			{ID: "f", Text: "False", Position: 1},
		},
	}

	assert.True(t, Validate(item, models.TextValue("true")).IsCorrect)
	assert.True(t, Validate(item, models.OptionValue("t")).IsCorrect)
	assert.False(t, Validate(item, models.TextValue("False")).IsCorrect)
}

func TestValidate_CorrectAnswerNamesOption(t *testing.T) {
	item := mcqItem(models.RequirementNone)
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "D"}}

	assert.True(t, Validate(item, models.OptionValue("o4")).IsCorrect)
}

func TestValidate_MultiChoiceAllRequired(t *testing.T) {
	item := mcqItem(models.RequirementAllRequired, "o1", "o3")

	res := Validate(item, models.OptionValue("o1", "o3"))
	assert.True(t, res.IsCorrect)
	assert.Empty(t, res.PartialCredit)

	res = Validate(item, models.OptionValue("o1"))
	assert.False(t, res.IsCorrect)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	require.Len(t, res.PartialCredit, 1)
	assert.InDelta(t, 1.0, res.PartialCredit[0].Earned, 1e-9)
	assert.Contains(t, res.PartialCredit[0].Reason, "A")

	res = Validate(item, models.OptionValue("o1", "o2"))
	assert.False(t, res.IsCorrect)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
}

func TestValidate_MultiChoiceWrongPicks(t *testing.T) {
	item := mcqItem(models.RequirementAllRequired, "o2", "o3")
	penalised := NewEngine(WithWrongPickPenalty())

	tests := []struct {
		name      string
		value     models.Value
		score     float64
		penalised float64
		correct   bool
	}{
		{"exact set", models.OptionValue("o2", "o3"), 1, 1, true},
		{"one right one wrong", models.OptionValue("o2", "o4"), 0.5, 0, false},
		{"both right plus extra", models.OptionValue("o2", "o3", "o4"), 1, 0.5, false},
		{"only wrong", models.OptionValue("o1", "o4"), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, tt.value)
			assert.Equal(t, tt.correct, res.IsCorrect)
			assert.InDelta(t, tt.score, res.Score, 1e-9)

			res = penalised.Validate(item, tt.value)
			assert.Equal(t, tt.correct, res.IsCorrect)
			assert.InDelta(t, tt.penalised, res.Score, 1e-9)
		})
	}
}

func TestValidate_AnyNFrom(t *testing.T) {
	item := textItem(models.RequirementAnyTwoFrom, "Paris", "London", "Berlin")

	tests := []struct {
		name    string
		value   models.Value
		score   float64
		correct bool
	}{
		{"two distinct", models.SlotsValue("paris", "BERLIN"), 1, true},
		{"one of two", models.SlotsValue("paris", "rome"), 0.5, false},
		{"repeat counts once", models.SlotsValue("paris", "Paris"), 0.5, false},
		{"newline separated text", models.TextValue("Paris\nLondon"), 1, true},
		{"semicolon separated text", models.TextValue("Rome; London"), 0.5, false},
		{"extra slots ignored", models.SlotsValue("Rome", "Madrid", "Paris"), 0, false},
		{"nothing matches", models.SlotsValue("Rome", "Madrid"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, tt.value)
			assert.Equal(t, tt.correct, res.IsCorrect)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
		})
	}
}

func TestValidate_AnyNFromOrderIndependent(t *testing.T) {
	item := textItem(models.RequirementAnyTwoFrom)
	item.CorrectAnswers = []models.CorrectAnswer{
		{Answer: "energy", AcceptsEquivalentPhrasing: true},
		{Answer: "kinetic energy"},
	}

	tests := []struct {
		name  string
		value models.Value
	}{
		{"broad answer first", models.SlotsValue("energy", "kinetic energy")},
		{"specific answer first", models.SlotsValue("kinetic energy", "energy")},
		{"text lines", models.TextValue("kinetic energy\nenergy")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, tt.value)
			assert.True(t, res.IsCorrect)
			assert.InDelta(t, 1.0, res.Score, 1e-9)
			assert.Empty(t, res.PartialCredit)
		})
	}
}

func TestValidate_AnyNFromPrefersFullOverECF(t *testing.T) {
	item := textItem(models.RequirementAnyTwoFrom)
	item.Marks = 2
	item.CorrectAnswers = []models.CorrectAnswer{
		{Answer: "5", Unit: "kg", ErrorCarriedForward: true},
		{Answer: "Paris"},
	}

	tests := []struct {
		name  string
		value models.Value
		score float64
	}{
		{"unitless value first", models.SlotsValue("5", "5 kg"), 0.5},
		{"full value first", models.SlotsValue("5 kg", "5"), 0.5},
		{"ecf alongside full", models.SlotsValue("5", "Paris"), 0.75},
		{"both full", models.SlotsValue("Paris", "5 kg"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, tt.value)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.score == 1, res.IsCorrect)
		})
	}
}

func TestMatchSlots(t *testing.T) {
	tests := []struct {
		name  string
		edges [][]altMatch
		want  []int
	}{
		{
			name:  "reroutes earlier slot",
			edges: [][]altMatch{{fullMatch, fullMatch}, {fullMatch, noMatch}},
			want:  []int{1, 0},
		},
		{
			name:  "full kept over ecf",
			edges: [][]altMatch{{valueOnly, noMatch}, {fullMatch, noMatch}},
			want:  []int{1, -1},
		},
		{
			name:  "ecf fills a free alternative",
			edges: [][]altMatch{{fullMatch, valueOnly}, {fullMatch, noMatch}},
			want:  []int{1, 0},
		},
		{
			name:  "no edges",
			edges: [][]altMatch{{noMatch}},
			want:  []int{-1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSlots(tt.edges, len(tt.want)))
		})
	}
}

func TestValidate_AnyOneFromCaseInsensitive(t *testing.T) {
	item := textItem(models.RequirementAnyOneFrom, "Paris", "Paris, France")

	assert.True(t, Validate(item, models.TextValue("PARIS")).IsCorrect)
	assert.True(t, Validate(item, models.TextValue("  paris,   france ")).IsCorrect)
}

func TestValidate_AnyNFromContext(t *testing.T) {
	item := textItem(models.RequirementAnyTwoFrom)
	item.CorrectAnswers = []models.CorrectAnswer{
		{Answer: "4", Context: &models.AnswerContext{Value: "x"}},
		{Answer: "7", Context: &models.AnswerContext{Value: "y"}},
	}

	value := models.Value{Kind: models.KindSlots, Slots: []models.SlotAnswer{
		{Key: "x", Text: "7"},
		{Key: "y", Text: "4"},
	}}
	assert.Zero(t, Validate(item, value).Score)

	value.Slots = []models.SlotAnswer{{Key: "x", Text: "4"}, {Key: "y", Text: "7"}}
	assert.True(t, Validate(item, value).IsCorrect)

	structured := models.StructuredValue(map[string]any{"x": 4, "y": 7})
	assert.True(t, Validate(item, structured).IsCorrect)
}

func TestValidate_AnyNFromTooFewAlternatives(t *testing.T) {
	item := textItem(models.RequirementAnyThreeFrom, "red", "blue")

	res := Validate(item, models.SlotsValue("red", "blue"))
	assert.True(t, res.IsCorrect)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, DiagRequirementArity, res.Diagnostics[0].Code)
}

func TestValidate_AllRequired(t *testing.T) {
	item := textItem(models.RequirementAllRequired, "oxygen", "hydrogen")

	res := Validate(item, models.TextValue("oxygen"))
	assert.False(t, res.IsCorrect)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	require.Len(t, res.PartialCredit, 1)
	assert.InDelta(t, 1.5, res.PartialCredit[0].Earned, 1e-9)

	res = Validate(item, models.TextValue("Oxygen and hydrogen"))
	assert.True(t, res.IsCorrect)

	res = Validate(item, models.SlotsValue("hydrogen", "oxygen"))
	assert.True(t, res.IsCorrect)
}

func TestValidate_BothRequiredArity(t *testing.T) {
	item := textItem(models.RequirementBothRequired, "a", "b", "c")

	res := Validate(item, models.SlotsValue("a", "b", "c"))
	assert.True(t, res.IsCorrect)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagRequirementArity, res.Diagnostics[0].Code)
}

func TestValidate_LinkedAlternatives(t *testing.T) {
	item := textItem(models.RequirementAllRequired)
	item.CorrectAnswers = []models.CorrectAnswer{
		{Answer: "force", AlternativeID: "a1", LinkedAlternatives: []string{"a2"}},
		{Answer: "mass", AlternativeID: "a2"},
	}

	assert.Zero(t, Validate(item, models.TextValue("force")).Score)
	assert.True(t, Validate(item, models.TextValue("force and mass")).IsCorrect)
}

func TestValidate_AlternativeMethodsFirstMatchWins(t *testing.T) {
	item := textItem(models.RequirementAlternativeMethods)
	item.Marks = 4
	item.CorrectAnswers = []models.CorrectAnswer{
		{Answer: "x = 2", Marks: f64(4)},
		{Answer: "guess 2", Marks: f64(2)},
	}

	res := Validate(item, models.TextValue("x = 2"))
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 4.0, res.MarksAwarded(item.Marks))

	res = Validate(item, models.TextValue("Guess 2"))
	assert.False(t, res.IsCorrect)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	require.Len(t, res.PartialCredit, 1)
	assert.InDelta(t, 2.0, res.PartialCredit[0].Earned, 1e-9)
}

func TestValidate_UnitsAndECF(t *testing.T) {
	item := textItem(models.RequirementNone)
	item.Marks = 2
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "9.8", Unit: "m/s^2", ErrorCarriedForward: true}}

	tests := []struct {
		name  string
		value string
		score float64
	}{
		{"exact unit", "9.8 m/s^2", 1},
		{"unit synonym", "9.8 m/s²", 1},
		{"no space", "9.8ms-2", 1},
		{"missing unit", "9.8", 0.5},
		{"wrong unit", "9.8 metres", 0.5},
		{"wrong value", "10 m/s^2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(item, models.TextValue(tt.value))
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			if tt.score == 0.5 {
				require.Len(t, res.PartialCredit, 1)
				assert.Contains(t, res.PartialCredit[0].Reason, "error carried forward")
			}
		})
	}

	item.CorrectAnswers[0].ErrorCarriedForward = false
	assert.Zero(t, Validate(item, models.TextValue("9.8")).Score)
}

func TestValidate_ECFCreditOption(t *testing.T) {
	engine := NewEngine(WithECFCredit(0.25))
	item := textItem(models.RequirementNone)
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "5", Unit: "kg", ErrorCarriedForward: true}}

	assert.InDelta(t, 0.25, engine.Validate(item, models.TextValue("5 g")).Score, 1e-9)
	assert.True(t, engine.Validate(item, models.TextValue("5 kilograms")).IsCorrect)
}

func TestValidate_CustomUnitSynonym(t *testing.T) {
	engine := NewEngine(WithUnitSynonyms(map[string]string{"furlongs": "fur"}))
	item := textItem(models.RequirementNone)
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "3", Unit: "fur"}}

	assert.True(t, engine.Validate(item, models.TextValue("3 furlongs")).IsCorrect)
}

func TestValidate_NumericTolerance(t *testing.T) {
	item := textItem(models.RequirementNone)
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "3.14", Tolerance: &models.Tolerance{Absolute: f64(0.01)}}}

	assert.True(t, Validate(item, models.TextValue("3.141")).IsCorrect)
	assert.False(t, Validate(item, models.TextValue("3.2")).IsCorrect)

	item.CorrectAnswers[0].Tolerance = &models.Tolerance{Relative: f64(0.05)}
	assert.True(t, Validate(item, models.TextValue("3.2")).IsCorrect)
	assert.True(t, Validate(item, models.TextValue("3.140")).IsCorrect)
}

func TestValidate_EquivalentPhrasing(t *testing.T) {
	item := textItem(models.RequirementNone)
	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "powerhouse of the cell", AcceptsEquivalentPhrasing: true}}

	assert.True(t, Validate(item, models.TextValue("It is the powerhouse of the cell.")).IsCorrect)
	assert.True(t, Validate(item, models.TextValue("cell powerhouse")).IsCorrect)
	assert.False(t, Validate(item, models.TextValue("the nucleus")).IsCorrect)

	item.CorrectAnswers = []models.CorrectAnswer{{Answer: "photosynthesis", AcceptsEquivalentPhrasing: true}}
	assert.True(t, Validate(item, models.TextValue("photosynthesys")).IsCorrect)

	item.CorrectAnswers[0].AcceptsEquivalentPhrasing = false
	assert.False(t, Validate(item, models.TextValue("photosynthesys")).IsCorrect)
}

func TestValidate_EmptyAndMalformed(t *testing.T) {
	item := textItem(models.RequirementNone, "anything")

	res := Validate(item, models.TextValue("   "))
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.Score)

	res = Validate(nil, models.TextValue("x"))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagNilItem, res.Diagnostics[0].Code)

	res = Validate(textItem(models.RequirementNone), models.TextValue("x"))
	assert.Zero(t, res.Score)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagNoAnswerKey, res.Diagnostics[0].Code)

	odd := textItem("pick_some", "yes")
	res = Validate(odd, models.TextValue("yes"))
	assert.True(t, res.IsCorrect)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagUnknownRequirement, res.Diagnostics[0].Code)
}

func TestValidate_ManualMarking(t *testing.T) {
	item := &models.Item{ID: "essay", Marks: 10, Type: models.TypeDescriptive, RequiresManualMarking: true}

	res := Validate(item, models.TextValue("A long answer"))
	assert.True(t, res.NeedsManualMarking)
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Diagnostics)
}

func TestValidate_ScoreBounds(t *testing.T) {
	items := []*models.Item{
		mcqItem(models.RequirementAllRequired, "o1", "o2"),
		textItem(models.RequirementAnyTwoFrom, "a", "b", "c"),
		textItem(models.RequirementAnyThreeFrom, "a", "b", "c"),
		textItem(models.RequirementAllRequired, "a", "b", "c"),
	}
	values := []models.Value{
		models.OptionValue("o1", "o2", "o3", "o4"),
		models.SlotsValue("a"),
		models.SlotsValue("a", "b"),
		models.SlotsValue("a", "a", "a"),
		models.TextValue("zzz"),
	}

	for _, item := range items {
		for _, v := range values {
			res := Validate(item, v)
			assert.GreaterOrEqual(t, res.Score, 0.0)
			assert.LessOrEqual(t, res.Score, 1.0)
			if n := item.AnswerRequirement.SlotCount(); n > 0 {
				steps := res.Score * float64(n)
				assert.InDelta(t, float64(int(steps+0.5)), steps, 1e-9)
			}
		}
	}
}
