package results

import (
	"fmt"
	"math"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// Aggregate derives results from a paper and an answer map in one pass.
// Neither input is modified and nothing is retained between calls.
func Aggregate(paper *models.Paper, answers map[string]models.UserAnswer) *models.Results {
	return aggregate(paper, answers, nil, nil)
}

// FromState aggregates a session snapshot, carrying flags and per-question time into the output.
func FromState(paper *models.Paper, state models.SessionState) *models.Results {
	flagged := make(map[string]bool, len(state.Flagged))
	for _, id := range state.Flagged {
		flagged[id] = true
	}
	return aggregate(paper, state.Answers, flagged, state.QuestionTimes)
}

func aggregate(paper *models.Paper, answers map[string]models.UserAnswer, flagged map[string]bool, times map[string]int) *models.Results {
	res := &models.Results{
		ByDifficulty: make(map[models.DifficultyLevel]*models.Rollup),
		ByTopic:      make(map[string]*models.Rollup),
		ByType:       make(map[models.QuestionType]*models.Rollup),
	}
	if paper == nil {
		res.Grade = GradeFor(0)
		return res
	}

	for qi := range paper.Questions {
		q := &paper.Questions[qi]
		qr := models.QuestionResult{
			QuestionID: q.ID,
			Label:      questionLabel(q, qi),
			Flagged:    flagged[q.ID],
			TimeSpent:  times[q.ID],
		}

		for _, leaf := range paper.QuestionLeaves(q) {
			ir := classify(leaf, answers)
			qr.Items = append(qr.Items, ir)
			qr.MarksEarned += ir.MarksEarned
			qr.MarksPossible += ir.MarksPossible

			res.TotalItems++
			res.TotalMarks += ir.MarksPossible
			res.EarnedMarks += ir.MarksEarned
			switch ir.Status {
			case models.ItemCorrect:
				res.Correct++
			case models.ItemPartial:
				res.Partial++
			case models.ItemIncorrect:
				res.Incorrect++
			default:
				res.Unattempted++
			}
			if ir.NeedsManual {
				res.PendingManual++
			}

			if leaf.Difficulty != "" {
				add(rollupFor(res.ByDifficulty, leaf.Difficulty), ir)
			}
			for _, topic := range uniqueTopics(leaf.Topics) {
				add(rollupFor(res.ByTopic, topic), ir)
			}
			if leaf.Item.Type != "" {
				add(rollupFor(res.ByType, leaf.Item.Type), ir)
			}
		}

		qr.Status = questionStatus(qr.Items)
		res.Questions = append(res.Questions, qr)
	}

	res.Attempted = res.TotalItems - res.Unattempted
	res.Percentage = percent(res.EarnedMarks, res.TotalMarks)
	res.Accuracy = percent(float64(res.Correct), float64(res.Attempted))
	res.CompletionRate = percent(float64(res.Attempted), float64(res.TotalItems))
	res.Grade = GradeFor(res.Percentage)

	for _, r := range res.ByDifficulty {
		r.Percentage = percent(r.EarnedMarks, r.PossibleMarks)
	}
	for _, r := range res.ByTopic {
		r.Percentage = percent(r.EarnedMarks, r.PossibleMarks)
	}
	for _, r := range res.ByType {
		r.Percentage = percent(r.EarnedMarks, r.PossibleMarks)
	}
	return res
}

func classify(leaf models.Leaf, answers map[string]models.UserAnswer) models.ItemResult {
	ir := models.ItemResult{
		Key:           leaf.Key,
		Label:         leafLabel(leaf),
		Type:          string(leaf.Item.Type),
		Status:        models.ItemUnattempted,
		MarksPossible: leaf.Item.Marks,
	}
	ans, ok := answers[leaf.Key]
	if !ok {
		return ir
	}

	ir.Score = ans.Score
	ir.MarksEarned = math.Min(math.Max(ans.MarksAwarded, 0), leaf.Item.Marks)
	ir.NeedsManual = ans.NeedsManual
	switch {
	case ans.IsCorrect || ans.Score >= 1:
		ir.Status = models.ItemCorrect
	case ans.Score > 0:
		ir.Status = models.ItemPartial
	default:
		ir.Status = models.ItemIncorrect
	}
	return ir
}

func questionStatus(items []models.ItemResult) models.ItemStatus {
	var correct, unattempted, earned int
	for _, it := range items {
		switch it.Status {
		case models.ItemCorrect:
			correct++
			earned++
		case models.ItemPartial:
			earned++
		case models.ItemUnattempted:
			unattempted++
		}
	}
	switch {
	case len(items) == 0 || unattempted == len(items):
		return models.ItemUnattempted
	case correct == len(items):
		return models.ItemCorrect
	case earned > 0:
		return models.ItemPartial
	default:
		return models.ItemIncorrect
	}
}

func rollupFor[K comparable](m map[K]*models.Rollup, k K) *models.Rollup {
	r, ok := m[k]
	if !ok {
		r = &models.Rollup{}
		m[k] = r
	}
	return r
}

func add(r *models.Rollup, ir models.ItemResult) {
	r.Total++
	r.EarnedMarks += ir.MarksEarned
	r.PossibleMarks += ir.MarksPossible
	switch ir.Status {
	case models.ItemCorrect:
		r.Correct++
	case models.ItemPartial:
		r.Partial++
	case models.ItemIncorrect:
		r.Incorrect++
	default:
		r.Unattempted++
	}
}

func uniqueTopics(topics []models.TopicRef) []string {
	seen := make(map[string]struct{}, len(topics))
	var out []string
	for _, t := range topics {
		k := t.Key()
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func percent(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return math.Round(num/den*10000) / 100
}

func questionLabel(q *models.Item, index int) string {
	if q.Label != "" {
		return q.Label
	}
	return fmt.Sprintf("Q%d", index+1)
}

func leafLabel(leaf models.Leaf) string {
	if leaf.Item.Label != "" {
		return leaf.Item.Label
	}
	return leaf.Key
}
