package session_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/session"
)

func Example() {
	paper := &models.Paper{
		ID: "geo-101",
		Questions: []models.Item{
			{
				ID: "q1", Marks: 2, Type: models.TypeMCQ,
				Options: []models.Option{
					{ID: "o1", Text: "Lyon", Position: 0},
					{ID: "o2", Text: "Paris", Position: 1, IsCorrect: true},
				},
			},
			{
				ID: "q2", Marks: 1, Type: models.TypeDescriptive,
				AnswerRequirement: models.RequirementAnyOneFrom,
				CorrectAnswers:    []models.CorrectAnswer{{Answer: "Seine"}},
			},
		},
	}

	s, err := session.New(paper, models.ModePractice, session.Options{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		TickInterval: -1,
	})
	if err != nil {
		panic(err)
	}
	defer s.Close()

	_ = s.Start()
	_, _ = s.Answer("q1", "", "", models.TextValue("B"))
	s.Next()
	_, _ = s.Answer("q2", "", "", models.TextValue("the seine"))

	res, _ := s.Submit()
	fmt.Printf("%.0f/%.0f %s\n", res.EarnedMarks, res.TotalMarks, res.Grade)
	// Output: 2/3 C
}
