package models

import (
	"strings"
	"time"
)

type ValueKind string

const (
	KindText       ValueKind = "text"
	KindOption     ValueKind = "option"
	KindSlots      ValueKind = "slots"
	KindStructured ValueKind = "structured"
)

// Value is the submitted answer. Kind says which of the other fields is populated.
type Value struct {
	Kind       ValueKind      `json:"kind" validate:"required,oneof=text option slots structured"`
	Text       string         `json:"text,omitempty"`
	OptionIDs  []string       `json:"option_ids,omitempty"`
	Slots      []SlotAnswer   `json:"slots,omitempty"`
	Structured map[string]any `json:"structured,omitempty"`
}

// SlotAnswer is one blank of a multi-part answer. Key may name the slot
// (matched against CorrectAnswer.Context) or be empty.
type SlotAnswer struct {
	Key  string `json:"key,omitempty"`
	Text string `json:"text"`
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func OptionValue(ids ...string) Value {
	return Value{Kind: KindOption, OptionIDs: ids}
}

func SlotsValue(texts ...string) Value {
	slots := make([]SlotAnswer, len(texts))
	for i, t := range texts {
		slots[i] = SlotAnswer{Text: t}
	}
	return Value{Kind: KindSlots, Slots: slots}
}

func StructuredValue(m map[string]any) Value {
	return Value{Kind: KindStructured, Structured: m}
}

// IsEmpty reports whether the value carries nothing worth scoring.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	case KindOption:
		for _, id := range v.OptionIDs {
			if strings.TrimSpace(id) != "" {
				return false
			}
		}
		return true
	case KindSlots:
		for _, s := range v.Slots {
			if strings.TrimSpace(s.Text) != "" {
				return false
			}
		}
		return true
	case KindStructured:
		return len(v.Structured) == 0
	default:
		return true
	}
}

type PartialCredit struct {
	Earned float64 `json:"earned"`
	Reason string  `json:"reason"`
}

// UserAnswer is the scored answer for one answerable item.
type UserAnswer struct {
	Key           string          `json:"key"`
	QuestionID    string          `json:"question_id"`
	PartID        string          `json:"part_id,omitempty"`
	SubpartID     string          `json:"subpart_id,omitempty"`
	Value         Value           `json:"value"`
	IsCorrect     bool            `json:"is_correct"`
	Score         float64         `json:"score"`
	MarksAwarded  float64         `json:"marks_awarded"`
	TimeSpent     int             `json:"time_spent"` // seconds
	PartialCredit []PartialCredit `json:"partial_credit,omitempty"`
	NeedsManual   bool            `json:"needs_manual,omitempty"`
	AnsweredAt    time.Time       `json:"answered_at"`
}
