package scoring

import (
	"fmt"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// Diagnostic codes surfaced for malformed answer data. They never fail scoring.
const (
	DiagRequirementArity   = "requirement_arity"
	DiagNoAnswerKey        = "no_answer_key"
	DiagUnknownRequirement = "unknown_requirement"
	DiagUnsupportedValue   = "unsupported_value"
	DiagNilItem            = "nil_item"
)

type Diagnostic struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of validating one submitted value.
type Result struct {
	IsCorrect          bool                   `json:"is_correct"`
	Score              float64                `json:"score"` // 0..1
	PartialCredit      []models.PartialCredit `json:"partial_credit,omitempty"`
	NeedsManualMarking bool                   `json:"needs_manual_marking,omitempty"`
	Diagnostics        []Diagnostic           `json:"diagnostics,omitempty"`
}

// MarksAwarded converts the score into marks for an item worth the given marks.
func (r Result) MarksAwarded(marks float64) float64 {
	if r.Score >= 1 {
		return marks
	}
	if r.Score <= 0 {
		return 0
	}
	return r.Score * marks
}

type config struct {
	ECFCredit       float64           // fraction of an alternative's share granted under error carried forward
	MaxEditDistance int               // fuzzy tolerance for equivalent phrasing
	UnitSynonyms    map[string]string // extra synonym -> canonical unit

	// WrongPickPenalty deducts one required share per wrong option on
	// multi-answer choice items.
	WrongPickPenalty bool
}

type Option func(*config)

func WithECFCredit(f float64) Option {
	return func(c *config) {
		if f >= 0 && f <= 1 {
			c.ECFCredit = f
		}
	}
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

func WithWrongPickPenalty() Option { return func(c *config) { c.WrongPickPenalty = true } }

func WithUnitSynonyms(m map[string]string) Option {
	return func(c *config) {
		for k, v := range m {
			c.UnitSynonyms[canonicalUnitKey(k)] = canonicalUnitKey(v)
		}
	}
}

// Engine scores submissions. It is stateless after construction and safe for concurrent use.
type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{
		ECFCredit:       0.5,
		MaxEditDistance: 1,
		UnitSynonyms:    map[string]string{},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{cfg: cfg}
}

var defaultEngine = NewEngine()

// Validate scores a value against an item using the default engine.
func Validate(item *models.Item, value models.Value) Result {
	return defaultEngine.Validate(item, value)
}

// ECFCredit reports the configured error-carried-forward fraction.
func (e *Engine) ECFCredit() float64 {
	return e.cfg.ECFCredit
}

func (e *Engine) Validate(item *models.Item, value models.Value) Result {
	if item == nil {
		return Result{Diagnostics: []Diagnostic{{Code: DiagNilItem, Message: "no item to score against"}}}
	}
	if value.IsEmpty() {
		return Result{}
	}

	var res Result
	switch item.Type {
	case models.TypeMCQ, models.TypeTrueFalse:
		res = e.validateChoice(item, value)
	default:
		res = e.validateText(item, value)
	}

	res.Score = clamp01(res.Score)
	if res.IsCorrect {
		res.Score = 1
	}
	if item.RequiresManualMarking {
		res.NeedsManualMarking = true
	}
	return res
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func diag(item *models.Item, code, format string, args ...any) Diagnostic {
	return Diagnostic{ItemID: item.ID, Code: code, Message: fmt.Sprintf(format, args...)}
}
