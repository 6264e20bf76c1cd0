package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

type altMatch int

const (
	noMatch altMatch = iota
	valueOnly        // value right, unit missing or wrong
	fullMatch
)

func (e *Engine) validateText(item *models.Item, value models.Value) Result {
	if len(item.CorrectAnswers) == 0 {
		if item.RequiresManualMarking {
			return Result{NeedsManualMarking: true}
		}
		return Result{Diagnostics: []Diagnostic{diag(item, DiagNoAnswerKey, "item has no correct answers")}}
	}

	req := item.AnswerRequirement
	switch {
	case req.SlotCount() > 0:
		return e.scoreAnyN(item, value, req.SlotCount())
	case req.RequiresAll():
		return e.scoreAllRequired(item, value)
	case req.AcceptsAny(), req == models.RequirementNone:
		return e.scoreFirstMatch(item, value)
	default:
		res := e.scoreFirstMatch(item, value)
		res.Diagnostics = append(res.Diagnostics, diag(item, DiagUnknownRequirement, "unknown answer requirement %q scored as first match", req))
		return res
	}
}

// scoreFirstMatch awards the share of the first alternative, in list order, the submission satisfies.
func (e *Engine) scoreFirstMatch(item *models.Item, value models.Value) Result {
	alts := item.CorrectAnswers
	ecf := -1
	for i, alt := range alts {
		switch e.matchInSubmission(alt, value, false) {
		case fullMatch:
			if !e.linkedSatisfied(alt, alts, value) {
				continue
			}
			share := altShare(item, alt)
			res := Result{Score: share, IsCorrect: share >= 1}
			if !res.IsCorrect {
				res.PartialCredit = []models.PartialCredit{{
					Earned: share * item.Marks,
					Reason: fmt.Sprintf("matched %s", altName(alt, i)),
				}}
			}
			return res
		case valueOnly:
			if alt.ErrorCarriedForward && ecf < 0 {
				ecf = i
			}
		}
	}

	if ecf >= 0 {
		credit := e.cfg.ECFCredit * altShare(item, alts[ecf])
		return Result{
			Score: credit,
			PartialCredit: []models.PartialCredit{{
				Earned: credit * item.Marks,
				Reason: fmt.Sprintf("value matches %s but unit is missing or wrong (error carried forward)", altName(alts[ecf], ecf)),
			}},
		}
	}
	return Result{}
}

// scoreAllRequired awards matched/total across every alternative.
func (e *Engine) scoreAllRequired(item *models.Item, value models.Value) Result {
	alts := item.CorrectAnswers
	var res Result
	if item.AnswerRequirement == models.RequirementBothRequired && len(alts) != 2 {
		res.Diagnostics = append(res.Diagnostics, diag(item, DiagRequirementArity,
			"both_required expects 2 alternatives, found %d", len(alts)))
	}

	total := float64(len(alts))
	matched := make([]altMatch, len(alts))
	for i, alt := range alts {
		matched[i] = e.matchInSubmission(alt, value, true)
	}

	full := 0
	credit := 0.0
	var entries []models.PartialCredit
	for i, alt := range alts {
		switch matched[i] {
		case fullMatch:
			if !linkedIn(alt, alts, matched) {
				continue
			}
			full++
			credit++
			entries = append(entries, models.PartialCredit{
				Earned: item.Marks / total,
				Reason: fmt.Sprintf("matched %s", altName(alt, i)),
			})
		case valueOnly:
			if alt.ErrorCarriedForward {
				credit += e.cfg.ECFCredit
				entries = append(entries, models.PartialCredit{
					Earned: e.cfg.ECFCredit * item.Marks / total,
					Reason: fmt.Sprintf("value matches %s but unit is missing or wrong (error carried forward)", altName(alt, i)),
				})
			}
		}
	}

	res.Score = credit / total
	res.IsCorrect = full == len(alts)
	if !res.IsCorrect && res.Score > 0 {
		res.PartialCredit = entries
	}
	return res
}

// scoreAnyN fills N slots from the alternatives, each alternative used at most once.
func (e *Engine) scoreAnyN(item *models.Item, value models.Value, n int) Result {
	alts := item.CorrectAnswers
	var res Result
	if len(alts) < n {
		res.Diagnostics = append(res.Diagnostics, diag(item, DiagRequirementArity,
			"%s needs %d alternatives, found %d", item.AnswerRequirement, n, len(alts)))
		n = len(alts)
	}

	slots := slotsOf(value)
	if len(slots) > n {
		slots = slots[:n]
	}

	edges := make([][]altMatch, len(slots))
	for si, slot := range slots {
		edges[si] = make([]altMatch, len(alts))
		for i, alt := range alts {
			if !contextFits(alt.Context, slot.Key) {
				continue
			}
			m := e.matchAlternative(alt, slot.Text)
			if m == fullMatch || (m == valueOnly && alt.ErrorCarriedForward) {
				edges[si][i] = m
			}
		}
	}

	slotOf := matchSlots(edges, len(alts))
	used := make([]altMatch, len(alts))
	for i, si := range slotOf {
		if si >= 0 {
			used[i] = edges[si][i]
		}
	}

	full := 0
	credit := 0.0
	var entries []models.PartialCredit
	for i, alt := range alts {
		switch used[i] {
		case fullMatch:
			if !linkedIn(alt, alts, used) {
				continue
			}
			full++
			credit++
			entries = append(entries, models.PartialCredit{
				Earned: item.Marks / float64(n),
				Reason: fmt.Sprintf("answer %d matched %s", slotOf[i]+1, altName(alt, i)),
			})
		case valueOnly:
			credit += e.cfg.ECFCredit
			entries = append(entries, models.PartialCredit{
				Earned: e.cfg.ECFCredit * item.Marks / float64(n),
				Reason: fmt.Sprintf("answer %d matches %s but unit is missing or wrong (error carried forward)", slotOf[i]+1, altName(alt, i)),
			})
		}
	}

	res.Score = credit / float64(n)
	res.IsCorrect = full >= n
	if !res.IsCorrect && res.Score > 0 {
		res.PartialCredit = entries
	}
	return res
}

// matchSlots assigns slots to distinct alternatives, maximising full
// matches first and error-carried-forward matches second. edges[slot][alt]
// is the match kind; there are at most three slots so every assignment is
// tried. The result maps each alternative to its slot, or -1.
func matchSlots(edges [][]altMatch, nAlts int) []int {
	owner := make([]int, nAlts)
	best := make([]int, nAlts)
	for i := range owner {
		owner[i], best[i] = -1, -1
	}
	bestFull, bestECF := 0, 0

	var assign func(si, full, ecf int)
	assign = func(si, full, ecf int) {
		if si == len(edges) {
			if full > bestFull || (full == bestFull && ecf > bestECF) {
				bestFull, bestECF = full, ecf
				copy(best, owner)
			}
			return
		}
		for ai := range owner {
			if owner[ai] >= 0 {
				continue
			}
			switch edges[si][ai] {
			case fullMatch:
				owner[ai] = si
				assign(si+1, full+1, ecf)
				owner[ai] = -1
			case valueOnly:
				owner[ai] = si
				assign(si+1, full, ecf+1)
				owner[ai] = -1
			}
		}
		assign(si+1, full, ecf)
	}
	assign(0, 0, 0)
	return best
}

// matchInSubmission checks the whole submission, then each slot, and
// optionally looks for the expected phrase inside the whole text.
func (e *Engine) matchInSubmission(alt models.CorrectAnswer, value models.Value, contain bool) altMatch {
	whole := wholeText(value)
	best := e.matchAlternative(alt, whole)
	if best == fullMatch || (!contain && value.Kind == models.KindText) {
		return best
	}
	for _, s := range slotsOf(value) {
		if m := e.matchAlternative(alt, s.Text); m > best {
			best = m
			if best == fullMatch {
				return best
			}
		}
	}
	if contain && alt.Unit == "" && containsPhrase(normalize(whole), normalize(alt.Answer)) {
		return fullMatch
	}
	return best
}

func (e *Engine) linkedSatisfied(alt models.CorrectAnswer, alts []models.CorrectAnswer, value models.Value) bool {
	for _, id := range alt.LinkedAlternatives {
		other, ok := findAlternative(alts, id)
		if !ok || e.matchInSubmission(other, value, true) != fullMatch {
			return false
		}
	}
	return true
}

// linkedIn reports whether every alternative linked from alt was itself fully matched.
func linkedIn(alt models.CorrectAnswer, alts []models.CorrectAnswer, matched []altMatch) bool {
	for _, id := range alt.LinkedAlternatives {
		found := false
		for i, other := range alts {
			if other.AlternativeID == id && matched[i] == fullMatch {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func findAlternative(alts []models.CorrectAnswer, id string) (models.CorrectAnswer, bool) {
	for _, a := range alts {
		if a.AlternativeID == id {
			return a, true
		}
	}
	return models.CorrectAnswer{}, false
}

// altShare is the fraction of item marks an alternative is worth.
func altShare(item *models.Item, alt models.CorrectAnswer) float64 {
	if alt.Marks == nil || item.Marks <= 0 {
		return 1
	}
	return clamp01(*alt.Marks / item.Marks)
}

func altName(alt models.CorrectAnswer, i int) string {
	if alt.AlternativeID != "" {
		return fmt.Sprintf("alternative %s (%q)", alt.AlternativeID, alt.Answer)
	}
	return fmt.Sprintf("alternative %d (%q)", i+1, alt.Answer)
}

func contextFits(ctx *models.AnswerContext, slotKey string) bool {
	if ctx == nil || strings.TrimSpace(slotKey) == "" {
		return true
	}
	return strings.EqualFold(slotKey, ctx.Value) || strings.EqualFold(slotKey, ctx.Label)
}

// slotsOf splits a value into individual answers. Free text is split on
// newlines and semicolons; commas are left alone since answers contain them.
func slotsOf(value models.Value) []models.SlotAnswer {
	switch value.Kind {
	case models.KindSlots:
		var out []models.SlotAnswer
		for _, s := range value.Slots {
			if strings.TrimSpace(s.Text) != "" {
				out = append(out, s)
			}
		}
		return out
	case models.KindStructured:
		return structuredSlots(value.Structured)
	case models.KindOption:
		out := make([]models.SlotAnswer, 0, len(value.OptionIDs))
		for _, id := range value.OptionIDs {
			out = append(out, models.SlotAnswer{Text: id})
		}
		return out
	default:
		parts := strings.FieldsFunc(value.Text, func(r rune) bool { return r == '\n' || r == ';' })
		var out []models.SlotAnswer
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				out = append(out, models.SlotAnswer{Text: p})
			}
		}
		return out
	}
}

func structuredSlots(m map[string]any) []models.SlotAnswer {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.SlotAnswer, 0, len(keys))
	for _, k := range keys {
		if m[k] == nil {
			continue
		}
		out = append(out, models.SlotAnswer{Key: k, Text: fmt.Sprint(m[k])})
	}
	return out
}

func wholeText(value models.Value) string {
	if value.Kind == models.KindText {
		return value.Text
	}
	slots := slotsOf(value)
	texts := make([]string, len(slots))
	for i, s := range slots {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}
