package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

const maxDepth = 3 // question, part, subpart

// PaperWarning flags data the scoring engine will tolerate but probably score oddly.
type PaperWarning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// PaperValidator checks paper structure before a session is created from it
type PaperValidator struct {
	structValidator *validator.Validate
}

func newPaperValidator(v *validator.Validate) *PaperValidator {
	return &PaperValidator{structValidator: v}
}

// ValidatePaper returns ValidationErrors for papers a session cannot run and
// warnings for malformed answer keys.
func (v *PaperValidator) ValidatePaper(paper *models.Paper) ([]PaperWarning, error) {
	if paper == nil {
		return nil, ValidationErrors{*NewValidationError("paper", "is required", nil)}
	}
	if err := v.structValidator.Struct(paper); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return nil, ToValidationErrors(fieldErrs)
		}
		return nil, err
	}

	c := &paperCheck{}
	seen := make(map[string]bool, len(paper.Questions))
	for i := range paper.Questions {
		q := &paper.Questions[i]
		if seen[q.ID] {
			c.fail(q.ID, "duplicate question id")
		}
		seen[q.ID] = true
		c.item(q, q.ID, 1)
	}

	if len(c.errs) > 0 {
		return c.warnings, c.errs
	}
	return c.warnings, nil
}

type paperCheck struct {
	errs     ValidationErrors
	warnings []PaperWarning
}

func (c *paperCheck) fail(path, msg string) {
	c.errs = append(c.errs, *NewValidationError(path, msg, nil))
}

func (c *paperCheck) warn(path, format string, args ...any) {
	c.warnings = append(c.warnings, PaperWarning{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *paperCheck) item(it *models.Item, path string, depth int) {
	if depth > maxDepth {
		c.fail(path, "nesting deeper than question/part/subpart")
		return
	}
	if !it.IsAnswerable() {
		ids := make(map[string]bool, len(it.Parts))
		for i := range it.Parts {
			child := &it.Parts[i]
			childPath := path + "/" + child.ID
			if ids[child.ID] {
				c.fail(childPath, "duplicate part id")
			}
			ids[child.ID] = true
			c.item(child, childPath, depth+1)
		}
		return
	}

	if it.Marks <= 0 {
		c.fail(path, "answerable item must carry positive marks")
	}

	switch it.Type {
	case models.TypeMCQ, models.TypeTrueFalse:
		c.choice(it, path)
	default:
		c.text(it, path)
	}
}

func (c *paperCheck) choice(it *models.Item, path string) {
	if len(it.Options) < 2 {
		c.fail(path, "choice question needs at least 2 options")
		return
	}
	ids := make(map[string]bool, len(it.Options))
	correct := 0
	for _, opt := range it.Options {
		if ids[opt.ID] {
			c.fail(path+"/"+opt.ID, "duplicate option id")
		}
		ids[opt.ID] = true
		if opt.IsCorrect {
			correct++
		}
	}
	if correct == 0 && len(it.CorrectAnswers) == 0 {
		c.warn(path, "no option is marked correct")
	}
	c.arity(it, path)
}

func (c *paperCheck) text(it *models.Item, path string) {
	if len(it.CorrectAnswers) == 0 {
		if !it.RequiresManualMarking {
			c.warn(path, "no correct answers and not marked for manual marking")
		}
		return
	}
	c.arity(it, path)
}

func (c *paperCheck) arity(it *models.Item, path string) {
	req := it.AnswerRequirement
	n := len(it.CorrectAnswers)
	if slots := req.SlotCount(); slots > 0 && n < slots {
		c.warn(path, "%s declares %d answers but only %d alternatives exist", req, slots, n)
	}
	if req == models.RequirementBothRequired && n != 2 {
		c.warn(path, "both_required expects exactly 2 alternatives, found %d", n)
	}

	alts := make(map[string]bool, n)
	for _, ca := range it.CorrectAnswers {
		if ca.AlternativeID != "" {
			alts[ca.AlternativeID] = true
		}
	}
	for _, ca := range it.CorrectAnswers {
		for _, linked := range ca.LinkedAlternatives {
			if !alts[linked] {
				c.warn(path, "linked alternative %q does not exist", linked)
			}
		}
	}
}
