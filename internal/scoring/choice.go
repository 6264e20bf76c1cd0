package scoring

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

func (e *Engine) validateChoice(item *models.Item, value models.Value) Result {
	opts := item.SortedOptions()
	correct := correctOptionIDs(item, opts)
	if len(correct) == 0 {
		return Result{Diagnostics: []Diagnostic{diag(item, DiagNoAnswerKey, "no option is marked correct")}}
	}

	selected, unknown := resolveSelections(opts, value)
	var diags []Diagnostic
	if len(unknown) > 0 {
		diags = append(diags, diag(item, DiagUnsupportedValue, "unrecognised option(s): %s", strings.Join(unknown, ", ")))
	}

	if !jointlyRequired(item, correct) {
		res := Result{Diagnostics: diags}
		if len(selected) == 1 {
			if _, ok := correct[selected[0]]; ok {
				res.IsCorrect = true
				res.Score = 1
			}
		}
		return res
	}

	hits, wrong := 0, 0
	var hitLabels []string
	for _, id := range selected {
		if _, ok := correct[id]; ok {
			hits++
			hitLabels = append(hitLabels, labelOf(opts, id))
		} else {
			wrong++
		}
	}

	required := len(correct)
	earned := hits
	if e.cfg.WrongPickPenalty {
		earned -= wrong
	}
	res := Result{Diagnostics: diags}
	res.Score = clamp01(float64(earned) / float64(required))
	res.IsCorrect = hits == required && wrong == 0
	if !res.IsCorrect && res.Score > 0 {
		per := item.Marks * res.Score / float64(len(hitLabels))
		for _, l := range hitLabels {
			res.PartialCredit = append(res.PartialCredit, models.PartialCredit{
				Earned: per,
				Reason: fmt.Sprintf("selected required option %s", l),
			})
		}
	}
	return res
}

// jointlyRequired is true when every correct option must be picked.
func jointlyRequired(item *models.Item, correct map[string]struct{}) bool {
	return item.AnswerRequirement.RequiresAll() && len(correct) > 0
}

// correctOptionIDs gathers options flagged correct plus any CorrectAnswer naming an option.
func correctOptionIDs(item *models.Item, opts []models.Option) map[string]struct{} {
	out := make(map[string]struct{})
	for _, o := range opts {
		if o.IsCorrect {
			out[o.ID] = struct{}{}
		}
	}
	for _, ca := range item.CorrectAnswers {
		if id, ok := resolveOption(opts, ca.Answer); ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// resolveSelections maps submitted tokens (ids, letter labels or option text) to option ids.
func resolveSelections(opts []models.Option, value models.Value) (selected []string, unknown []string) {
	var tokens []string
	switch value.Kind {
	case models.KindOption:
		tokens = value.OptionIDs
	case models.KindText:
		tokens = []string{value.Text}
	case models.KindSlots:
		for _, s := range value.Slots {
			tokens = append(tokens, s.Text)
		}
	case models.KindStructured:
		for _, s := range structuredSlots(value.Structured) {
			tokens = append(tokens, s.Text)
		}
	}

	seen := make(map[string]struct{})
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			continue
		}
		id, ok := resolveOption(opts, t)
		if !ok {
			unknown = append(unknown, t)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, id)
	}
	return selected, unknown
}

func resolveOption(opts []models.Option, token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	for _, o := range opts {
		if o.ID == token {
			return o.ID, true
		}
	}
	if idx := models.IndexForLabel(token); idx >= 0 && idx < len(opts) {
		return opts[idx].ID, true
	}
	norm := normalize(token)
	for _, o := range opts {
		if normalize(o.Text) == norm {
			return o.ID, true
		}
	}
	return "", false
}

func labelOf(opts []models.Option, id string) string {
	for i, o := range opts {
		if o.ID == id {
			return models.LabelFor(i)
		}
	}
	return id
}
