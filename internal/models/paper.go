package models

import (
	"sort"
	"strings"
)

type QuestionType string

const (
	TypeMCQ         QuestionType = "mcq"
	TypeTrueFalse   QuestionType = "true_false"
	TypeDescriptive QuestionType = "descriptive"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// AnswerRequirement governs how several CorrectAnswer alternatives combine.
// The zero value means a single expected answer matched directly.
type AnswerRequirement string

const (
	RequirementNone                 AnswerRequirement = ""
	RequirementAnyOneFrom           AnswerRequirement = "any_one_from"
	RequirementAnyTwoFrom           AnswerRequirement = "any_two_from"
	RequirementAnyThreeFrom         AnswerRequirement = "any_three_from"
	RequirementBothRequired         AnswerRequirement = "both_required"
	RequirementAllRequired          AnswerRequirement = "all_required"
	RequirementAlternativeMethods   AnswerRequirement = "alternative_methods"
	RequirementAcceptableVariations AnswerRequirement = "acceptable_variations"
)

// SlotCount returns N for the any_N_from policies and 0 otherwise.
func (r AnswerRequirement) SlotCount() int {
	switch r {
	case RequirementAnyOneFrom:
		return 1
	case RequirementAnyTwoFrom:
		return 2
	case RequirementAnyThreeFrom:
		return 3
	default:
		return 0
	}
}

func (r AnswerRequirement) RequiresAll() bool {
	return r == RequirementBothRequired || r == RequirementAllRequired
}

func (r AnswerRequirement) AcceptsAny() bool {
	return r == RequirementAlternativeMethods || r == RequirementAcceptableVariations
}

// Paper is the read-only question paper a session runs through.
type Paper struct {
	ID              string       `json:"id" validate:"required"`
	Code            string       `json:"code"`
	Subject         string       `json:"subject"`
	DurationMinutes *int         `json:"duration_minutes,omitempty"`
	TotalMarks      float64      `json:"total_marks"`
	Questions       []Item       `json:"questions" validate:"required,min=1,dive"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// Item is a question, part or subpart. Items without Parts are answerable.
type Item struct {
	ID                    string            `json:"id" validate:"required"`
	Label                 string            `json:"label"`
	Text                  string            `json:"text"`
	Marks                 float64           `json:"marks" validate:"gte=0"`
	Type                  QuestionType      `json:"type" validate:"omitempty,question_type"`
	Difficulty            DifficultyLevel   `json:"difficulty,omitempty" validate:"omitempty,difficulty_level"`
	Topics                []TopicRef        `json:"topics,omitempty"`
	Unit                  *UnitRef          `json:"unit,omitempty"`
	Options               []Option          `json:"options,omitempty" validate:"dive"`
	CorrectAnswers        []CorrectAnswer   `json:"correct_answers,omitempty"`
	AnswerRequirement     AnswerRequirement `json:"answer_requirement,omitempty" validate:"omitempty,answer_requirement"`
	Hint                  string            `json:"hint,omitempty"`
	Explanation           string            `json:"explanation,omitempty"`
	RequiresManualMarking bool              `json:"requires_manual_marking,omitempty"`
	MarkingCriteria       string            `json:"marking_criteria,omitempty"`
	Attachments           []Attachment      `json:"attachments,omitempty"`
	Parts                 []Item            `json:"parts,omitempty" validate:"dive"`
}

type TopicRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Key returns the name used for rollups, falling back to the id.
func (t TopicRef) Key() string {
	if strings.TrimSpace(t.Name) != "" {
		return t.Name
	}
	return t.ID
}

type UnitRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Option struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

type Tolerance struct {
	Absolute *float64 `json:"absolute,omitempty"`
	Relative *float64 `json:"relative,omitempty"` // fraction, 0.05 == 5%
}

// AnswerContext names the sub-element of a multi-blank answer an alternative satisfies.
type AnswerContext struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

type CorrectAnswer struct {
	Answer                    string         `json:"answer"`
	Marks                     *float64       `json:"marks,omitempty"`
	AlternativeID             string         `json:"alternative_id,omitempty"`
	LinkedAlternatives        []string       `json:"linked_alternatives,omitempty"`
	Unit                      string         `json:"unit,omitempty"`
	Tolerance                 *Tolerance     `json:"tolerance,omitempty"`
	AcceptsEquivalentPhrasing bool           `json:"accepts_equivalent_phrasing,omitempty"`
	ErrorCarriedForward       bool           `json:"error_carried_forward,omitempty"`
	Context                   *AnswerContext `json:"context,omitempty"`
}

// Attachment is display-only; scoring never reads it.
type Attachment struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

func (it *Item) IsAnswerable() bool {
	return len(it.Parts) == 0
}

// SortedOptions returns the options ordered by Position without touching the item.
func (it *Item) SortedOptions() []Option {
	out := make([]Option, len(it.Options))
	copy(out, it.Options)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// OptionLabel returns the derived letter label of an option, or "" if unknown.
func (it *Item) OptionLabel(optionID string) string {
	for i, opt := range it.SortedOptions() {
		if opt.ID == optionID {
			return LabelFor(i)
		}
	}
	return ""
}

// Part returns the direct child with the given id.
func (it *Item) Part(id string) (*Item, bool) {
	for i := range it.Parts {
		if it.Parts[i].ID == id {
			return &it.Parts[i], true
		}
	}
	return nil, false
}

func (p *Paper) Question(id string) (*Item, bool) {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i], true
		}
	}
	return nil, false
}

func (p *Paper) QuestionIDs() []string {
	ids := make([]string, len(p.Questions))
	for i, q := range p.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Duration returns the paper duration in seconds, or 0 when untimed.
func (p *Paper) DurationSeconds() int {
	if p.DurationMinutes == nil || *p.DurationMinutes <= 0 {
		return 0
	}
	return *p.DurationMinutes * 60
}

// Resolve finds the item addressed by a question/part/subpart path.
func (p *Paper) Resolve(questionID, partID, subpartID string) (*Item, bool) {
	q, ok := p.Question(questionID)
	if !ok {
		return nil, false
	}
	if partID == "" {
		if subpartID != "" {
			return nil, false
		}
		return q, true
	}
	part, ok := q.Part(partID)
	if !ok {
		return nil, false
	}
	if subpartID == "" {
		return part, true
	}
	return part.Part(subpartID)
}

// Leaf is an answerable item together with its position in the hierarchy.
type Leaf struct {
	Key        string
	QuestionID string
	PartID     string
	SubpartID  string
	Item       *Item
	// Difficulty and Topics are inherited from the nearest ancestor when unset.
	Difficulty DifficultyLevel
	Topics     []TopicRef
}

// Leaves walks question -> part -> subpart in paper order and returns every answerable item.
func (p *Paper) Leaves() []Leaf {
	var out []Leaf
	for i := range p.Questions {
		out = append(out, p.QuestionLeaves(&p.Questions[i])...)
	}
	return out
}

// QuestionLeaves returns the answerable items beneath (or equal to) a top-level question.
func (p *Paper) QuestionLeaves(q *Item) []Leaf {
	var out []Leaf
	if q.IsAnswerable() {
		return append(out, Leaf{
			Key: AnswerKey(q.ID, "", ""), QuestionID: q.ID, Item: q,
			Difficulty: q.Difficulty, Topics: q.Topics,
		})
	}
	for j := range q.Parts {
		part := &q.Parts[j]
		partDiff, partTopics := inherit(part, q.Difficulty, q.Topics)
		if part.IsAnswerable() {
			out = append(out, Leaf{
				Key: AnswerKey(q.ID, part.ID, ""), QuestionID: q.ID, PartID: part.ID, Item: part,
				Difficulty: partDiff, Topics: partTopics,
			})
			continue
		}
		for k := range part.Parts {
			sub := &part.Parts[k]
			subDiff, subTopics := inherit(sub, partDiff, partTopics)
			out = append(out, Leaf{
				Key: AnswerKey(q.ID, part.ID, sub.ID), QuestionID: q.ID, PartID: part.ID, SubpartID: sub.ID, Item: sub,
				Difficulty: subDiff, Topics: subTopics,
			})
		}
	}
	return out
}

func inherit(it *Item, diff DifficultyLevel, topics []TopicRef) (DifficultyLevel, []TopicRef) {
	d, t := it.Difficulty, it.Topics
	if d == "" {
		d = diff
	}
	if len(t) == 0 {
		t = topics
	}
	return d, t
}

// PossibleMarks sums the marks of every answerable item.
func (p *Paper) PossibleMarks() float64 {
	total := 0.0
	for _, l := range p.Leaves() {
		total += l.Item.Marks
	}
	return total
}
