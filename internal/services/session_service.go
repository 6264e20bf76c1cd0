package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-session-engine/internal/cache"
	"github.com/SAP-F-2025/exam-session-engine/internal/events"
	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
	"github.com/SAP-F-2025/exam-session-engine/internal/scoring"
	"github.com/SAP-F-2025/exam-session-engine/internal/session"
	"github.com/SAP-F-2025/exam-session-engine/internal/validator"
)

const persistTimeout = 10 * time.Second

type SessionServiceConfig struct {
	TickInterval    time.Duration
	ECFCredit       float64
	MaxEditDistance int
	SnapshotTTL     time.Duration

	// WrongPickPenalty enables scoring.WithWrongPickPenalty.
	WrongPickPenalty bool
	// Clock is injected by tests; nil uses the system clock.
	Clock session.Clock
}

type sessionService struct {
	papers    repositories.PaperRepository
	results   repositories.ResultRepository
	publisher events.EventPublisher
	cache     cache.CacheService
	validator *validator.Validator
	engine    *scoring.Engine
	logger    *slog.Logger
	svcLogger *ServiceLogger
	config    SessionServiceConfig

	mu       sync.RWMutex
	sessions map[string]*session.Session

	snapMu sync.Mutex
	snaps  map[string]*snapshotGuard

	pending sync.WaitGroup
}

// NewSessionService wires live sessions to persistence. cacheService may be nil.
func NewSessionService(
	papers repositories.PaperRepository,
	results repositories.ResultRepository,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	validator *validator.Validator,
	logger *slog.Logger,
	config SessionServiceConfig,
) SessionService {
	var opts []scoring.Option
	if config.ECFCredit > 0 {
		opts = append(opts, scoring.WithECFCredit(config.ECFCredit))
	}
	if config.MaxEditDistance > 0 {
		opts = append(opts, scoring.WithMaxEditDistance(config.MaxEditDistance))
	}
	if config.WrongPickPenalty {
		opts = append(opts, scoring.WithWrongPickPenalty())
	}

	return &sessionService{
		papers:      papers,
		results:     results,
		publisher:   publisher,
		cache:       cacheService,
		validator:   validator,
		engine:      scoring.NewEngine(opts...),
		logger:      logger,
		svcLogger:   NewServiceLogger(logger, LogConfig{Service: "exam-session-engine", Component: "session"}),
		config:      config,
		sessions:    make(map[string]*session.Session),
		snaps:       make(map[string]*snapshotGuard),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (resp *SessionResponse, err error) {
	op := s.svcLogger.WithOperation(ctx, "create_session", "")
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	paper, warnings, err := s.loadPaper(ctx, req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	op.sessionID = id

	var sess *session.Session
	sess, err = session.New(paper, req.Mode, session.Options{
		ID:              id,
		Clock:           s.config.Clock,
		Engine:          s.engine,
		Logger:          s.logger,
		TickInterval:    s.config.TickInterval,
		DurationSeconds: req.DurationMinutes * 60,
		Hooks:           s.hooksFor(id),
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("Session created",
		"session_id", id,
		"paper_id", paper.ID,
		"mode", req.Mode,
		"warnings", len(warnings))
	s.snapshot(sess)

	resp = s.toResponse(sess)
	resp.Warnings = warnings
	return resp, nil
}

func (s *sessionService) loadPaper(ctx context.Context, req *CreateSessionRequest) (*models.Paper, []validator.PaperWarning, error) {
	paper := req.Paper
	if paper == nil {
		var err error
		paper, err = s.papers.GetByID(ctx, req.PaperID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrPaperNotFound, req.PaperID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load paper: %w", err)
		}
	}

	warnings, err := s.validator.Paper().ValidatePaper(paper)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		s.logger.Warn("Paper warning", "paper_id", paper.ID, "path", w.Path, "message", w.Message)
	}

	if req.Paper != nil {
		if err := s.papers.Save(ctx, paper); err != nil {
			return nil, nil, fmt.Errorf("failed to save paper: %w", err)
		}
	}
	return paper, warnings, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*SessionResponse, error) {
	if sess, err := s.lookup(sessionID); err == nil {
		return s.toResponse(sess), nil
	}

	// Not live in this process; fall back to the last snapshot.
	if s.cache != nil {
		var state models.SessionState
		if err := s.cache.Get(ctx, cache.SessionKey(sessionID), &state); err == nil {
			return &SessionResponse{State: state}, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Snapshot lookup failed", "session_id", sessionID, "error", err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

func (s *sessionService) Start(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.transition(ctx, "start_session", sessionID, (*session.Session).Start)
}

func (s *sessionService) Pause(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.transition(ctx, "pause_session", sessionID, (*session.Session).Pause)
}

func (s *sessionService) Resume(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.transition(ctx, "resume_session", sessionID, (*session.Session).Resume)
}

func (s *sessionService) Retry(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.transition(ctx, "retry_session", sessionID, (*session.Session).Retry)
}

func (s *sessionService) transition(ctx context.Context, operation, sessionID string, fn func(*session.Session) error) (resp *SessionResponse, err error) {
	op := s.svcLogger.WithOperation(ctx, operation, sessionID)
	defer func() { op.LogResult(err) }()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err = businessRule(fn(sess)); err != nil {
		return nil, err
	}
	s.snapshot(sess)
	return s.toResponse(sess), nil
}

func (s *sessionService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sess.Close()
	s.writeSnapshot("evict_snapshot", sessionID, true, func(ctx context.Context) error {
		return s.cache.Delete(ctx, cache.SessionKey(sessionID))
	})
	s.logger.Info("Session closed", "session_id", sessionID)
	return nil
}

func (s *sessionService) Shutdown() {
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		live = append(live, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range live {
		sess.Close()
	}
	s.pending.Wait()
	s.snapMu.Lock()
	clear(s.snaps)
	s.snapMu.Unlock()
	s.logger.Info("Session service stopped", "closed_sessions", len(live))
}

// ===== NAVIGATION =====

func (s *sessionService) Navigate(ctx context.Context, sessionID string, req *NavigateRequest) (resp *SessionResponse, err error) {
	op := s.svcLogger.WithOperation(ctx, "navigate", sessionID)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	var moved bool
	switch {
	case req.Index != nil:
		moved = sess.Navigate(*req.Index)
	case req.Direction == "next":
		moved = sess.Next()
	default:
		moved = sess.Previous()
	}
	if moved {
		s.snapshot(sess)
	}

	resp = s.toResponse(sess)
	resp.Moved = &moved
	return resp, nil
}

func (s *sessionService) HandleKey(ctx context.Context, sessionID string, req *KeyRequest) (*session.KeyResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	res := sess.HandleKey(session.Key(req.Key))
	if res.Moved {
		s.snapshot(sess)
	}
	return &res, nil
}

// ===== ANSWERS AND FLAGS =====

func (s *sessionService) Answer(ctx context.Context, sessionID string, req *AnswerRequest) (ua *models.UserAnswer, err error) {
	op := s.svcLogger.WithOperation(ctx, "answer", sessionID)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := sess.Answer(req.QuestionID, req.PartID, req.SubpartID, req.Value)
	if err = businessRule(err); err != nil {
		return nil, err
	}
	s.snapshot(sess)
	return &answer, nil
}

func (s *sessionService) Flag(ctx context.Context, sessionID, questionID string) error {
	return s.flag(ctx, "flag", sessionID, questionID, (*session.Session).Flag)
}

func (s *sessionService) Unflag(ctx context.Context, sessionID, questionID string) error {
	return s.flag(ctx, "unflag", sessionID, questionID, (*session.Session).Unflag)
}

func (s *sessionService) flag(ctx context.Context, operation, sessionID, questionID string, fn func(*session.Session, string) error) (err error) {
	op := s.svcLogger.WithOperation(ctx, operation, sessionID)
	defer func() { op.LogResult(err) }()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if err = businessRule(fn(sess, questionID)); err != nil {
		return err
	}
	s.snapshot(sess)
	return nil
}

// ===== COMPLETION =====

func (s *sessionService) Submit(ctx context.Context, sessionID string) (res *models.Results, err error) {
	op := s.svcLogger.WithOperation(ctx, "submit", sessionID)
	defer func() { op.LogResult(err) }()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	res, err = sess.Submit()
	if err = businessRule(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *sessionService) CompleteReview(ctx context.Context, sessionID string) (report *models.ReviewReport, err error) {
	op := s.svcLogger.WithOperation(ctx, "complete_review", sessionID)
	defer func() { op.LogResult(err) }()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	report, err = sess.CompleteReview()
	if err = businessRule(err); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *sessionService) RequestExit(ctx context.Context, sessionID string) (*session.ExitPrompt, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	prompt := sess.RequestExit()
	return &prompt, nil
}

func (s *sessionService) ConfirmExit(ctx context.Context, sessionID string) (resp *SessionResponse, err error) {
	op := s.svcLogger.WithOperation(ctx, "confirm_exit", sessionID)
	defer func() { op.LogResult(err) }()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.ConfirmExit()
	s.snapshot(sess)
	return s.toResponse(sess), nil
}

// Results re-derives results for a live session, or decodes the stored submission otherwise.
func (s *sessionService) Results(ctx context.Context, sessionID string) (*models.Results, error) {
	if sess, err := s.lookup(sessionID); err == nil {
		return sess.Results(), nil
	}

	record, err := s.results.GetBySession(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	return record.DecodeResults()
}

// ===== HOOKS =====

func (s *sessionService) hooksFor(sessionID string) session.Hooks {
	return session.Hooks{
		OnStart: func(state models.SessionState) {
			s.publish(sessionID, events.NewSessionStartedEvent(state))
		},
		OnSubmit: func(sub session.Submission) {
			s.onSubmit(sub)
		},
		OnExit: func(report *models.ReviewReport) {
			s.onExit(sessionID, report)
		},
		OnDiagnostic: func(key string, d scoring.Diagnostic) {
			s.svcLogger.LogDiagnostic(sessionID, key, d)
		},
	}
}

func (s *sessionService) onSubmit(sub session.Submission) {
	state := sub.State
	s.dispatch("save_submission", state.SessionID, func(ctx context.Context) error {
		record, err := models.NewSessionResultRecord(state, sub.Results)
		if err != nil {
			return err
		}
		return s.results.SaveSubmission(ctx, record)
	})
	s.publish(state.SessionID, events.NewSessionSubmittedEvent(state, sub.Results, sub.Auto))
	s.storeSnapshot(state)
}

func (s *sessionService) onExit(sessionID string, report *models.ReviewReport) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return
	}
	state := sess.State()

	if report == nil {
		s.publish(sessionID, events.NewSessionExitedEvent(sessionID, state.PaperID, state.Status))
		return
	}

	rep := *report
	s.dispatch("save_review_report", sessionID, func(ctx context.Context) error {
		record, err := models.NewReviewReportRecord(sessionID, state.PaperID, rep)
		if err != nil {
			return err
		}
		return s.results.SaveReviewReport(ctx, record)
	})
	s.publish(sessionID, events.NewReviewCompletedEvent(sessionID, state.PaperID, rep))
	s.storeSnapshot(state)
}

// ===== HELPERS =====

func (s *sessionService) lookup(sessionID string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

func (s *sessionService) toResponse(sess *session.Session) *SessionResponse {
	resp := &SessionResponse{
		State:          sess.State(),
		AnswersVisible: sess.AnswersVisible(),
		BlockUnload:    sess.ShouldBlockUnload(),
		Live:           true,
	}
	if remaining, ok := sess.TimeRemaining(); ok {
		resp.TimeRemaining = &remaining
	}
	return resp
}

func (s *sessionService) snapshot(sess *session.Session) {
	if s.cache == nil {
		return
	}
	s.storeSnapshot(sess.State())
}

func (s *sessionService) storeSnapshot(state models.SessionState) {
	s.writeSnapshot("store_snapshot", state.SessionID, false, func(ctx context.Context) error {
		return s.cache.Set(ctx, cache.SessionKey(state.SessionID), state, s.config.SnapshotTTL)
	})
}

// snapshotGuard orders the snapshot writes of one session: a write that
// starts after a newer one has landed is dropped.
type snapshotGuard struct {
	mu      sync.Mutex
	seq     uint64 // guarded by sessionService.snapMu
	written uint64 // guarded by mu
}

// writeSnapshot queues write behind the session's guard. An evicting write
// releases the guard once it lands unless newer writes were queued meanwhile.
func (s *sessionService) writeSnapshot(operation, sessionID string, evict bool, write func(ctx context.Context) error) {
	if s.cache == nil {
		return
	}
	s.snapMu.Lock()
	g, ok := s.snaps[sessionID]
	if !ok {
		g = &snapshotGuard{}
		s.snaps[sessionID] = g
	}
	g.seq++
	seq := g.seq
	s.snapMu.Unlock()

	s.dispatch(operation, sessionID, func(ctx context.Context) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		if seq <= g.written {
			return nil
		}
		g.written = seq
		err := write(ctx)
		if evict {
			s.releaseGuard(sessionID, g, seq)
		}
		return err
	})
}

func (s *sessionService) releaseGuard(sessionID string, g *snapshotGuard, seq uint64) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if s.snaps[sessionID] == g && g.seq == seq {
		delete(s.snaps, sessionID)
	}
}

func (s *sessionService) publish(sessionID string, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	s.dispatch("publish_"+string(event.Type), sessionID, func(ctx context.Context) error {
		return s.publisher.PublishSessionEvent(ctx, event)
	})
}

// dispatch runs fn in the background. Failures are logged and never touch session state.
func (s *sessionService) dispatch(operation, sessionID string, fn func(ctx context.Context) error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.svcLogger.LogRecovery(context.Background(), operation, sessionID, r, debug.Stack())
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("Background operation failed",
				"operation", operation,
				"session_id", sessionID,
				"error", err)
		}
	}()
}
