package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/results"
	"github.com/SAP-F-2025/exam-session-engine/internal/scoring"
)

// Submit reasons recorded on the snapshot.
const (
	ReasonManual          = "manual"
	ReasonTimeExpired     = "time_expired"
	ReasonReviewCompleted = "review_completed"
)

// Submission is handed to OnSubmit once a session reaches submitted.
type Submission struct {
	State   models.SessionState
	Results *models.Results
	Auto    bool
}

// Hooks are invoked after the session lock is released.
type Hooks struct {
	OnStart      func(state models.SessionState)
	OnSubmit     func(sub Submission)
	OnExit       func(report *models.ReviewReport)
	OnDiagnostic func(key string, d scoring.Diagnostic)
}

type Options struct {
	ID     string
	Clock  Clock
	Engine *scoring.Engine
	Logger *slog.Logger
	Hooks  Hooks
	// TickInterval is the real interval between timer ticks. Zero means one second;
	// a negative value disables the timer goroutine so ticks are driven through Tick.
	TickInterval time.Duration
	// DurationSeconds overrides the paper duration when positive.
	DurationSeconds int
}

// Session runs one candidate through one paper. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id     string
	paper  *models.Paper
	mode   models.SessionMode
	engine *scoring.Engine
	clock  Clock
	logger *slog.Logger
	hooks  Hooks

	tickInterval time.Duration
	duration     int

	status       models.SessionStatus
	current      int
	answers      map[string]models.UserAnswer
	flagged      map[string]struct{}
	tracker      *Tracker
	elapsed      int
	starts       map[string]time.Time
	spent        map[string]time.Duration
	visitStart   time.Time
	startedAt    *time.Time
	submittedAt  *time.Time
	submitReason string

	stop     chan struct{}
	timerGen int
	wg       sync.WaitGroup
}

func New(paper *models.Paper, mode models.SessionMode, opts Options) (*Session, error) {
	if paper == nil || len(paper.Questions) == 0 {
		return nil, ErrEmptyPaper
	}
	if mode == "" {
		mode = models.ModePractice
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Engine == nil {
		opts.Engine = scoring.NewEngine()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Second
	}
	duration := paper.DurationSeconds()
	if opts.DurationSeconds > 0 {
		duration = opts.DurationSeconds
	}

	s := &Session{
		id:           opts.ID,
		paper:        paper,
		mode:         mode,
		engine:       opts.Engine,
		clock:        opts.Clock,
		logger:       opts.Logger.With("session_id", opts.ID, "mode", string(mode)),
		hooks:        opts.Hooks,
		tickInterval: opts.TickInterval,
		duration:     duration,
		tracker:      NewTracker(paper.QuestionIDs()),
	}
	s.resetLocked()
	if mode.BypassesTimer() {
		s.beginLocked()
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Mode() models.SessionMode { return s.mode }

func (s *Session) Paper() *models.Paper { return s.paper }

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start moves an idle or submitted session to running with fresh state.
func (s *Session) Start() error {
	return s.start(false)
}

// Retry discards all state, whatever the current status, and starts again.
func (s *Session) Retry() error {
	return s.start(true)
}

func (s *Session) start(force bool) error {
	s.mu.Lock()
	if !force && (s.status == models.StatusRunning || s.status == models.StatusPaused) {
		s.mu.Unlock()
		return ErrSessionInProgress
	}
	s.stopTimerLocked()
	s.resetLocked()
	s.beginLocked()
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("session started", "duration_seconds", s.duration, "retry", force)
	if s.hooks.OnStart != nil {
		s.hooks.OnStart(state)
	}
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != models.ModeTimed {
		return ErrNotTimedMode
	}
	switch s.status {
	case models.StatusIdle:
		return ErrSessionNotStarted
	case models.StatusSubmitted:
		return ErrSessionSubmitted
	case models.StatusPaused:
		return nil
	}
	s.settleVisitLocked(s.clock.Now())
	s.stopTimerLocked()
	s.status = models.StatusPaused
	s.logger.Debug("session paused", "elapsed", s.elapsed)
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != models.ModeTimed {
		return ErrNotTimedMode
	}
	switch s.status {
	case models.StatusIdle:
		return ErrSessionNotStarted
	case models.StatusSubmitted:
		return ErrSessionSubmitted
	case models.StatusRunning:
		return nil
	}
	s.status = models.StatusRunning
	s.visitStart = s.clock.Now()
	s.startTimerLocked()
	s.logger.Debug("session resumed", "elapsed", s.elapsed)
	return nil
}

// Tick advances the timed clock by one second and auto-submits once the duration is reached.
// It does nothing unless a timed session is running.
func (s *Session) Tick() {
	s.mu.Lock()
	s.tickLocked(s.timerGen)
}

func (s *Session) tick(gen int) {
	s.mu.Lock()
	s.tickLocked(gen)
}

// tickLocked releases the lock before returning.
func (s *Session) tickLocked(gen int) {
	if gen != s.timerGen || s.status != models.StatusRunning || s.mode != models.ModeTimed {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	if s.duration <= 0 || s.elapsed < s.duration {
		s.mu.Unlock()
		return
	}
	sub := s.submitLocked(ReasonTimeExpired)
	s.mu.Unlock()

	s.logger.Info("session auto-submitted", "elapsed", sub.State.ElapsedSeconds)
	s.emitSubmit(sub)
}

// Navigate moves to a top-level question. Out of range indexes leave the session unchanged.
func (s *Session) Navigate(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(index)
}

func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(s.current + 1)
}

func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(s.current - 1)
}

func (s *Session) navigateLocked(index int) bool {
	if index < 0 || index >= len(s.paper.Questions) || s.status == models.StatusIdle {
		return false
	}
	if index == s.current {
		return true
	}
	if s.status == models.StatusSubmitted {
		s.current = index
		return true
	}

	now := s.clock.Now()
	s.settleVisitLocked(now)
	s.current = index
	s.enterLocked(now)
	return true
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Answer scores value against the addressed item and stores it. An empty value clears the entry.
func (s *Session) Answer(questionID, partID, subpartID string, value models.Value) (models.UserAnswer, error) {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return models.UserAnswer{}, err
	}
	item, ok := s.paper.Resolve(questionID, partID, subpartID)
	if !ok {
		s.mu.Unlock()
		return models.UserAnswer{}, fmt.Errorf("%w: %s", ErrItemNotFound, models.AnswerKey(questionID, partID, subpartID))
	}
	if !item.IsAnswerable() {
		s.mu.Unlock()
		return models.UserAnswer{}, fmt.Errorf("%w: %s", ErrItemNotAnswerable, models.AnswerKey(questionID, partID, subpartID))
	}

	key := models.AnswerKey(questionID, partID, subpartID)
	if value.IsEmpty() {
		delete(s.answers, key)
		s.mu.Unlock()
		return models.UserAnswer{}, nil
	}

	now := s.clock.Now()
	start, ok := s.starts[questionID]
	if !ok {
		start = now
		s.starts[questionID] = now
	}

	res := s.engine.Validate(item, value)
	ua := models.UserAnswer{
		Key:           key,
		QuestionID:    questionID,
		PartID:        partID,
		SubpartID:     subpartID,
		Value:         value,
		IsCorrect:     res.IsCorrect,
		Score:         res.Score,
		MarksAwarded:  res.MarksAwarded(item.Marks),
		TimeSpent:     int(now.Sub(start).Seconds()),
		PartialCredit: res.PartialCredit,
		NeedsManual:   res.NeedsManualMarking,
		AnsweredAt:    now,
	}
	s.answers[key] = ua
	s.mu.Unlock()

	for _, d := range res.Diagnostics {
		s.logger.Warn("scoring diagnostic", "key", key, "code", d.Code, "message", d.Message)
		if s.hooks.OnDiagnostic != nil {
			s.hooks.OnDiagnostic(key, d)
		}
	}
	return ua, nil
}

func (s *Session) Flag(questionID string) error {
	return s.setFlag(questionID, func(bool) bool { return true })
}

func (s *Session) Unflag(questionID string) error {
	return s.setFlag(questionID, func(bool) bool { return false })
}

// ToggleFlag flips the flag and returns the new state.
func (s *Session) ToggleFlag(questionID string) (bool, error) {
	var flagged bool
	err := s.setFlag(questionID, func(cur bool) bool {
		flagged = !cur
		return flagged
	})
	return flagged, err
}

func (s *Session) setFlag(questionID string, next func(bool) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case models.StatusIdle:
		return ErrSessionNotStarted
	case models.StatusSubmitted:
		return ErrSessionSubmitted
	}
	if _, ok := s.paper.Question(questionID); !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, questionID)
	}
	_, cur := s.flagged[questionID]
	if next(cur) {
		s.flagged[questionID] = struct{}{}
	} else {
		delete(s.flagged, questionID)
	}
	return nil
}

// Submit freezes the session and returns its results.
func (s *Session) Submit() (*models.Results, error) {
	s.mu.Lock()
	switch s.status {
	case models.StatusIdle:
		s.mu.Unlock()
		return nil, ErrSessionNotStarted
	case models.StatusSubmitted:
		s.mu.Unlock()
		return nil, ErrSessionSubmitted
	}
	sub := s.submitLocked(ReasonManual)
	s.mu.Unlock()

	s.logger.Info("session submitted",
		"earned_marks", sub.Results.EarnedMarks,
		"percentage", sub.Results.Percentage)
	s.emitSubmit(sub)
	return sub.Results, nil
}

func (s *Session) submitLocked(reason string) Submission {
	now := s.clock.Now()
	s.settleVisitLocked(now)
	s.stopTimerLocked()
	s.status = models.StatusSubmitted
	s.submittedAt = &now
	s.submitReason = reason

	state := s.snapshotLocked()
	return Submission{
		State:   state,
		Results: results.FromState(s.paper, state),
		Auto:    reason == ReasonTimeExpired,
	}
}

func (s *Session) emitSubmit(sub Submission) {
	if s.hooks.OnSubmit != nil {
		s.hooks.OnSubmit(sub)
	}
}

// CompleteReview ends a QA walkthrough once every question has been visited.
func (s *Session) CompleteReview() (*models.ReviewReport, error) {
	s.mu.Lock()
	if s.mode != models.ModeQA {
		s.mu.Unlock()
		return nil, ErrNotQAMode
	}
	if s.status == models.StatusSubmitted {
		s.mu.Unlock()
		return nil, ErrSessionSubmitted
	}
	if !s.tracker.Complete() {
		visited, total := s.tracker.Count(), s.tracker.Total()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (%d of %d visited)", ErrReviewIncomplete, visited, total)
	}

	now := s.clock.Now()
	s.settleVisitLocked(now)
	s.stopTimerLocked()
	s.status = models.StatusSubmitted
	s.submittedAt = &now
	s.submitReason = ReasonReviewCompleted
	state := s.snapshotLocked()
	s.mu.Unlock()

	report := &models.ReviewReport{
		Completed:        true,
		CompletedAt:      now.UTC(),
		Mode:             models.ReviewModeQA,
		FlaggedQuestions: state.Flagged,
		QuestionTimes:    state.QuestionTimes,
		TimeElapsed:      state.ElapsedSeconds,
		AnsweredCount:    state.AnsweredQuestionCount(),
		TotalQuestions:   len(s.paper.Questions),
		VisitedQuestions: state.Visited,
	}
	if len(state.Answers) > 0 {
		pct := results.FromState(s.paper, state).Percentage
		report.Score = &pct
	}

	s.logger.Info("review completed",
		"answered", report.AnsweredCount,
		"flagged", len(report.FlaggedQuestions))
	if s.hooks.OnExit != nil {
		s.hooks.OnExit(report)
	}
	return report, nil
}

// Results re-derives results from the current answers.
func (s *Session) Results() *models.Results {
	state := s.State()
	return results.FromState(s.paper, state)
}

// State returns a deep copy of the session state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TimeRemaining reports seconds left on a timed session with a positive duration.
func (s *Session) TimeRemaining() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != models.ModeTimed || s.duration <= 0 {
		return 0, false
	}
	return max(0, s.duration-s.elapsed), true
}

// AnswersVisible reports whether correct answers may be shown.
func (s *Session) AnswersVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.BypassesTimer() || s.status == models.StatusSubmitted
}

// Close stops the timer goroutine and waits for it to exit.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) writableLocked() error {
	switch s.status {
	case models.StatusIdle:
		return ErrSessionNotStarted
	case models.StatusPaused:
		return ErrSessionPaused
	case models.StatusSubmitted:
		return ErrSessionSubmitted
	}
	return nil
}

func (s *Session) resetLocked() {
	s.status = models.StatusIdle
	s.current = 0
	s.answers = make(map[string]models.UserAnswer)
	s.flagged = make(map[string]struct{})
	s.starts = make(map[string]time.Time)
	s.spent = make(map[string]time.Duration)
	s.tracker.Reset("")
	s.elapsed = 0
	s.visitStart = time.Time{}
	s.startedAt = nil
	s.submittedAt = nil
	s.submitReason = ""
}

func (s *Session) beginLocked() {
	now := s.clock.Now()
	s.status = models.StatusRunning
	s.startedAt = &now
	s.enterLocked(now)
	s.startTimerLocked()
}

// enterLocked makes the current question the visit target.
func (s *Session) enterLocked(now time.Time) {
	id := s.paper.Questions[s.current].ID
	s.tracker.Visit(id)
	if _, ok := s.starts[id]; !ok {
		s.starts[id] = now
	}
	s.visitStart = now
}

// settleVisitLocked books time on the current question since it was entered.
func (s *Session) settleVisitLocked(now time.Time) {
	if s.status != models.StatusRunning || s.visitStart.IsZero() {
		return
	}
	id := s.paper.Questions[s.current].ID
	if d := now.Sub(s.visitStart); d > 0 {
		s.spent[id] += d
	}
	s.visitStart = time.Time{}
}

func (s *Session) startTimerLocked() {
	if s.mode != models.ModeTimed || s.stop != nil || s.tickInterval < 0 {
		return
	}
	s.timerGen++
	gen := s.timerGen
	stop := make(chan struct{})
	s.stop = stop
	ticker := s.clock.NewTicker(s.tickInterval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				s.tick(gen)
			}
		}
	}()
}

// stopTimerLocked signals the goroutine without waiting; it may be blocked on s.mu.
func (s *Session) stopTimerLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.timerGen++
}

func (s *Session) elapsedLocked(now time.Time) int {
	if s.mode == models.ModeTimed {
		return s.elapsed
	}
	if s.startedAt == nil {
		return 0
	}
	end := now
	if s.submittedAt != nil {
		end = *s.submittedAt
	}
	return int(end.Sub(*s.startedAt).Seconds())
}

func (s *Session) snapshotLocked() models.SessionState {
	now := s.clock.Now()
	state := models.SessionState{
		SessionID:      s.id,
		PaperID:        s.paper.ID,
		Mode:           s.mode,
		Status:         s.status,
		CurrentIndex:   s.current,
		Answers:        make(map[string]models.UserAnswer, len(s.answers)),
		Flagged:        s.flaggedLocked(),
		Visited:        s.tracker.VisitedIDs(),
		ElapsedSeconds: s.elapsedLocked(now),
		DurationSecs:   s.duration,
		QuestionStarts: make(map[string]time.Time, len(s.starts)),
		QuestionTimes:  make(map[string]int, len(s.spent)),
		SubmitReason:   s.submitReason,
	}
	for k, v := range s.answers {
		state.Answers[k] = copyAnswer(v)
	}
	for k, v := range s.starts {
		state.QuestionStarts[k] = v
	}
	for k, v := range s.spent {
		state.QuestionTimes[k] = int(v.Seconds())
	}
	if s.status == models.StatusRunning && !s.visitStart.IsZero() {
		id := s.paper.Questions[s.current].ID
		state.QuestionTimes[id] = int((s.spent[id] + now.Sub(s.visitStart)).Seconds())
	}
	if s.startedAt != nil {
		t := *s.startedAt
		state.StartedAt = &t
	}
	if s.submittedAt != nil {
		t := *s.submittedAt
		state.SubmittedAt = &t
	}
	return state
}

// flaggedLocked lists flagged ids in paper order.
func (s *Session) flaggedLocked() []string {
	out := make([]string, 0, len(s.flagged))
	for _, q := range s.paper.Questions {
		if _, ok := s.flagged[q.ID]; ok {
			out = append(out, q.ID)
		}
	}
	return out
}

func copyAnswer(a models.UserAnswer) models.UserAnswer {
	out := a
	if a.Value.OptionIDs != nil {
		out.Value.OptionIDs = append([]string(nil), a.Value.OptionIDs...)
	}
	if a.Value.Slots != nil {
		out.Value.Slots = append([]models.SlotAnswer(nil), a.Value.Slots...)
	}
	if a.Value.Structured != nil {
		out.Value.Structured = make(map[string]any, len(a.Value.Structured))
		for k, v := range a.Value.Structured {
			out.Value.Structured[k] = v
		}
	}
	if a.PartialCredit != nil {
		out.PartialCredit = append([]models.PartialCredit(nil), a.PartialCredit...)
	}
	return out
}
