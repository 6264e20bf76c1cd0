package scoring

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// normalize trims, case-folds and collapses internal whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// loose additionally drops punctuation, keeping letters, digits, '.' between digits and spaces.
func loose(s string) string {
	rs := []rune(strings.ToLower(s))
	var b strings.Builder
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "to": {}, "is": {}, "are": {}, "and": {}, "it": {}, "in": {},
}

// containsPhrase reports whether needle appears in haystack on word boundaries.
func containsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	h := " " + loose(haystack) + " "
	n := loose(needle)
	if n == "" {
		return false
	}
	return strings.Contains(h, " "+n+" ")
}

// matchAlternative compares one submitted answer with one alternative.
func (e *Engine) matchAlternative(alt models.CorrectAnswer, submitted string) altMatch {
	if strings.TrimSpace(submitted) == "" {
		return noMatch
	}
	if alt.Unit == "" {
		if e.valueMatches(alt, submitted) {
			return fullMatch
		}
		return noMatch
	}

	val, unit := splitUnit(submitted)
	if !e.valueMatches(alt, val) {
		return noMatch
	}
	if unit != "" && e.unitsEqual(alt.Unit, unit) {
		return fullMatch
	}
	return valueOnly
}

func (e *Engine) valueMatches(alt models.CorrectAnswer, submitted string) bool {
	expected := alt.Answer
	if ev, _ := splitUnit(expected); ev != "" && alt.Unit != "" {
		expected = ev
	}
	if sf, ok := parseNumber(submitted); ok {
		if ef, ok := parseNumber(expected); ok {
			return withinTolerance(sf, ef, alt.Tolerance)
		}
	}

	ns, ne := normalize(submitted), normalize(expected)
	if ns == "" {
		return false
	}
	if ns == ne {
		return true
	}
	if alt.AcceptsEquivalentPhrasing {
		return e.equivalent(ns, ne)
	}
	return false
}

// equivalent is the lenient comparison used when an alternative accepts equivalent phrasing.
func (e *Engine) equivalent(submitted, expected string) bool {
	ls, le := loose(submitted), loose(expected)
	if ls == "" || le == "" {
		return false
	}
	if ls == le {
		return true
	}
	if containsPhrase(ls, le) {
		return true
	}

	sTokens := strings.Fields(ls)
	eTokens := contentTokens(le)
	if containsPhrase(le, ls) && 2*len(sTokens) >= len(strings.Fields(le)) {
		return true
	}
	if len(eTokens) > 0 {
		have := make(map[string]struct{}, len(sTokens))
		for _, t := range sTokens {
			have[t] = struct{}{}
		}
		all := true
		for _, t := range eTokens {
			if _, ok := have[t]; !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	if e.cfg.MaxEditDistance > 0 && len([]rune(le)) >= 5 {
		return levenshtein(ls, le) <= e.cfg.MaxEditDistance
	}
	return false
}

func contentTokens(s string) []string {
	var out []string
	for _, t := range strings.Fields(s) {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	// thousands separators
	if strings.Contains(s, ",") {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func withinTolerance(got, want float64, tol *models.Tolerance) bool {
	diff := math.Abs(got - want)
	if tol == nil || (tol.Absolute == nil && tol.Relative == nil) {
		return diff <= 1e-9*math.Max(1, math.Abs(want))
	}
	if tol.Absolute != nil && diff <= *tol.Absolute+1e-12 {
		return true
	}
	if tol.Relative != nil && diff <= *tol.Relative*math.Abs(want)+1e-12 {
		return true
	}
	return false
}
