package models

type ItemStatus string

const (
	ItemCorrect     ItemStatus = "correct"
	ItemPartial     ItemStatus = "partial"
	ItemIncorrect   ItemStatus = "incorrect"
	ItemUnattempted ItemStatus = "unattempted"
)

// Rollup aggregates leaf items sharing one attribute value.
type Rollup struct {
	Correct       int     `json:"correct"`
	Partial       int     `json:"partial"`
	Incorrect     int     `json:"incorrect"`
	Unattempted   int     `json:"unattempted"`
	Total         int     `json:"total"`
	EarnedMarks   float64 `json:"earned_marks"`
	PossibleMarks float64 `json:"possible_marks"`
	Percentage    float64 `json:"percentage"`
}

type ItemResult struct {
	Key           string     `json:"key"`
	Label         string     `json:"label"`
	Type          string     `json:"type"`
	Status        ItemStatus `json:"status"`
	Score         float64    `json:"score"`
	MarksEarned   float64    `json:"marks_earned"`
	MarksPossible float64    `json:"marks_possible"`
	NeedsManual   bool       `json:"needs_manual,omitempty"`
}

type QuestionResult struct {
	QuestionID    string       `json:"question_id"`
	Label         string       `json:"label"`
	MarksEarned   float64      `json:"marks_earned"`
	MarksPossible float64      `json:"marks_possible"`
	Status        ItemStatus   `json:"status"`
	Flagged       bool         `json:"flagged"`
	TimeSpent     int          `json:"time_spent"`
	Items         []ItemResult `json:"items"`
}

// Results is derived from a paper and an answer map; it holds no state of its own.
type Results struct {
	TotalMarks     float64 `json:"total_marks"`
	EarnedMarks    float64 `json:"earned_marks"`
	Percentage     float64 `json:"percentage"`
	Accuracy       float64 `json:"accuracy"`
	CompletionRate float64 `json:"completion_rate"`
	Grade          string  `json:"grade"`

	TotalItems    int `json:"total_items"`
	Attempted     int `json:"attempted"`
	Correct       int `json:"correct"`
	Partial       int `json:"partial"`
	Incorrect     int `json:"incorrect"`
	Unattempted   int `json:"unattempted"`
	PendingManual int `json:"pending_manual"`

	ByDifficulty map[DifficultyLevel]*Rollup `json:"by_difficulty"`
	ByTopic      map[string]*Rollup          `json:"by_topic"`
	ByType       map[QuestionType]*Rollup    `json:"by_type"`
	Questions    []QuestionResult            `json:"questions"`
}
