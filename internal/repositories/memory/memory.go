// Package memory holds map-backed repositories used when no database is configured.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

type PaperStore struct {
	mu     sync.RWMutex
	papers map[string][]byte
}

func NewPaperStore() *PaperStore {
	return &PaperStore{papers: make(map[string][]byte)}
}

// Save stores a JSON copy so later mutation by the caller is not observed.
func (s *PaperStore) Save(_ context.Context, paper *models.Paper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.papers[paper.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *PaperStore) GetByID(_ context.Context, id string) (*models.Paper, error) {
	s.mu.RLock()
	data, ok := s.papers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	var p models.Paper
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PaperStore) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.papers[id]
	return ok, nil
}

func (s *PaperStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.papers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.papers, id)
	return nil
}

type ResultStore struct {
	mu      sync.RWMutex
	nextID  uint
	results map[string]*models.SessionResultRecord
	reviews map[string]*models.ReviewReportRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]*models.SessionResultRecord),
		reviews: make(map[string]*models.ReviewReportRecord),
	}
}

func (s *ResultStore) SaveSubmission(_ context.Context, record *models.SessionResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *record
	if prev, ok := s.results[rec.SessionID]; ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	} else {
		s.nextID++
		rec.ID = s.nextID
		rec.CreatedAt = time.Now().UTC()
	}
	s.results[rec.SessionID] = &rec
	record.ID = rec.ID
	return nil
}

func (s *ResultStore) GetBySession(_ context.Context, sessionID string) (*models.SessionResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.results[sessionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *ResultStore) ListByPaper(_ context.Context, paperID string, filters repositories.ResultFilters) ([]*models.SessionResultRecord, int64, error) {
	s.mu.RLock()
	var matched []*models.SessionResultRecord
	for _, rec := range s.results {
		if rec.PaperID != paperID || !matches(rec, filters) {
			continue
		}
		out := *rec
		matched = append(matched, &out)
	}
	s.mu.RUnlock()

	sortRecords(matched, filters.SortBy, filters.SortOrder == "asc")
	total := int64(len(matched))

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []*models.SessionResultRecord{}, total, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (s *ResultStore) GetPaperStats(_ context.Context, paperID string) (*repositories.PaperResultStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &repositories.PaperResultStats{PaperID: paperID}
	var sum float64
	for _, rec := range s.results {
		if rec.PaperID != paperID {
			continue
		}
		stats.Submissions++
		sum += rec.Percentage
		stats.BestPercent = max(stats.BestPercent, rec.Percentage)
		if rec.SubmitReason == "time_expired" {
			stats.AutoSubmitted++
		}
	}
	if stats.Submissions > 0 {
		stats.AveragePercent = sum / float64(stats.Submissions)
	}
	return stats, nil
}

func (s *ResultStore) SaveReviewReport(_ context.Context, record *models.ReviewReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *record
	if prev, ok := s.reviews[rec.SessionID]; ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	} else {
		s.nextID++
		rec.ID = s.nextID
		rec.CreatedAt = time.Now().UTC()
	}
	s.reviews[rec.SessionID] = &rec
	record.ID = rec.ID
	return nil
}

func (s *ResultStore) GetReviewBySession(_ context.Context, sessionID string) (*models.ReviewReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.reviews[sessionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func matches(rec *models.SessionResultRecord, f repositories.ResultFilters) bool {
	if f.Mode != "" && rec.Mode != f.Mode {
		return false
	}
	if f.DateFrom != nil && rec.SubmittedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && rec.SubmittedAt.After(*f.DateTo) {
		return false
	}
	return true
}

func sortRecords(recs []*models.SessionResultRecord, by string, asc bool) {
	less := func(a, b *models.SessionResultRecord) bool { return a.SubmittedAt.Before(b.SubmittedAt) }
	switch by {
	case "percentage":
		less = func(a, b *models.SessionResultRecord) bool { return a.Percentage < b.Percentage }
	case "grade":
		less = func(a, b *models.SessionResultRecord) bool { return a.Grade < b.Grade }
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if asc {
			return less(recs[i], recs[j])
		}
		return less(recs[j], recs[i])
	})
}

var (
	_ repositories.PaperRepository  = (*PaperStore)(nil)
	_ repositories.ResultRepository = (*ResultStore)(nil)
)
