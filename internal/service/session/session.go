package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/prepzone/backend/internal/config"
	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	"github.com/zhouzirui/prepzone/backend/internal/service/scoring"
	"github.com/zhouzirui/prepzone/backend/internal/service/timer"
)

// Content produces questions and summaries for a run.
type Content interface {
	InitialQuestion(ctx context.Context, t i18n.Translator, category game.Category) (game.Question, error)
	NextQuestion(ctx context.Context, t i18n.Translator, category game.Category, prev game.Question, choice int) (game.Question, error)
	Summary(ctx context.Context, t i18n.Translator, category game.Category, history []game.HistoryItem) string
}

// Settings tunes session timing.
type Settings struct {
	DefaultLanguage string
	TimerSeconds    *int
	EndGameDelay    time.Duration
	FetchTimeout    time.Duration
	TickInterval    time.Duration
}

// Dependencies are shared by every session of a Service.
type Dependencies struct {
	Content     Content
	Progression *progression.Store
	Categories  game.Store
	Languages   *i18n.Bundle
	Images      func(categoryKey string) string
	Settings    Settings
}

// Session is one player's state machine. All methods are safe for concurrent use.
type Session struct {
	id    string
	deps  Dependencies
	timer *timer.Controller

	mu           sync.Mutex
	screen       screen
	language     string
	translator   i18n.Translator
	timerSeconds *int
	run          *run
	runSeq       uint64
	turnSeq      uint64
	fetchSeq     uint64
	inflight     uint64
	lastCategory *game.Category
	closed       bool

	subSeq      int
	subscribers map[int]chan Snapshot
}

func newSession(id string, deps Dependencies) *Session {
	if deps.Images == nil {
		deps.Images = game.ImageFor
	}

	s := &Session{
		id:           id,
		deps:         deps,
		timer:        timer.New(deps.Settings.TickInterval),
		screen:       languageSelection{},
		translator:   deps.Languages.Translator(i18n.BaseLanguage),
		timerSeconds: copyInt(deps.Settings.TimerSeconds),
		subscribers:  make(map[int]chan Snapshot),
	}

	if deps.Settings.DefaultLanguage != "" {
		if code, ok := deps.Languages.Match(deps.Settings.DefaultLanguage); ok {
			s.language = code
			s.translator = deps.Languages.Translator(code)
			s.screen = welcome{}
		}
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// History returns a copy of the answered questions of the current run.
func (s *Session) History() []game.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return append([]game.HistoryItem(nil), s.run.history...)
}

// SelectLanguage leaves the language gate.
func (s *Session) SelectLanguage(code string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateLanguageSelection); err != nil {
		return s.snapshotLocked(), err
	}

	matched, ok := s.deps.Languages.Match(code)
	if !ok {
		return s.snapshotLocked(), ErrUnknownLanguage
	}

	s.language = matched
	s.translator = s.deps.Languages.Translator(matched)
	s.setScreenLocked(welcome{})
	return s.snapshotLocked(), nil
}

// Start moves from the welcome screen to category selection.
func (s *Session) Start() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateWelcome); err != nil {
		return s.snapshotLocked(), err
	}
	s.setScreenLocked(categorySelection{})
	return s.snapshotLocked(), nil
}

// Back returns from category selection to the welcome screen.
func (s *Session) Back() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateCategorySelection); err != nil {
		return s.snapshotLocked(), err
	}
	s.setScreenLocked(welcome{})
	return s.snapshotLocked(), nil
}

// SetTimer changes the per-question countdown. nil disables it.
// The value is fixed for a run once the category is chosen.
func (s *Session) SetTimer(seconds *int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateWelcome, StateCategorySelection, StateGameOver); err != nil {
		return s.snapshotLocked(), err
	}
	if seconds != nil && (*seconds <= 0 || *seconds > config.MaxTimerSeconds) {
		return s.snapshotLocked(), ErrInvalidTimer
	}

	s.timerSeconds = copyInt(seconds)
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// SelectCategory starts a run and blocks until the first question is fetched.
func (s *Session) SelectCategory(ctx context.Context, key string) (Snapshot, error) {
	s.mu.Lock()
	if err := s.guardLocked(StateCategorySelection); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}

	category, ok := s.deps.Categories.FindByKey(key)
	if !ok {
		defer s.mu.Unlock()
		return s.snapshotLocked(), ErrUnknownCategory
	}
	return s.beginRunLocked(ctx, category)
}

// Answer resolves the current question with the player's choice.
func (s *Session) Answer(choice int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateGame); err != nil {
		return s.snapshotLocked(), err
	}
	r := s.activeRunLocked()
	if r == nil {
		return s.snapshotLocked(), nil
	}
	if r.turn.answered {
		return s.snapshotLocked(), ErrAlreadyAnswered
	}
	if !r.scenario.QuestionData.ValidChoice(choice) {
		return s.snapshotLocked(), ErrInvalidChoice
	}

	s.resolveLocked(r, choice, r.turn.timeLeft, false)
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// Next fetches the follow-up question for the answered turn.
func (s *Session) Next(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.guardLocked(StateGame); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}
	r := s.activeRunLocked()
	if r == nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	if !r.turn.answered {
		defer s.mu.Unlock()
		return s.snapshotLocked(), ErrNotAnswered
	}
	if r.endScheduled {
		defer s.mu.Unlock()
		return s.snapshotLocked(), ErrGameEnding
	}

	prev := r.scenario.QuestionData
	choice := r.turn.choice
	category := r.category
	translator := s.translator
	r.questionCount++
	s.setScreenLocked(loading{purpose: LoadNext})
	token := s.beginFetchLocked()
	s.mu.Unlock()

	fetchCtx, cancel := s.fetchContext(ctx)
	question, err := s.deps.Content.NextQuestion(fetchCtx, translator, category, prev, choice)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishFetchLocked(token) {
		return s.snapshotLocked(), ErrStaleFetch
	}
	if err != nil {
		log.Printf("[session] %s next question failed: %v", s.id, err)
		s.setScreenLocked(failure{message: err.Error()})
		return s.snapshotLocked(), nil
	}

	r.scenario.QuestionData = question
	s.startTurnLocked(r)
	s.setScreenLocked(playing{})
	return s.snapshotLocked(), nil
}

// EndGame finishes the run, grants XP and waits for the summary.
func (s *Session) EndGame(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.guardLocked(StateGame); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}
	r := s.activeRunLocked()
	if r == nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	return s.endRunLocked(ctx, r)
}

// Restart replays the category of the finished run.
func (s *Session) Restart(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.guardLocked(StateGameOver); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}
	if s.lastCategory == nil {
		defer s.mu.Unlock()
		s.failMissingDataLocked()
		return s.snapshotLocked(), nil
	}
	return s.beginRunLocked(ctx, *s.lastCategory)
}

// NewScenario goes back to category selection after a finished run.
func (s *Session) NewScenario() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateGameOver); err != nil {
		return s.snapshotLocked(), err
	}
	s.resetRunLocked()
	s.setScreenLocked(categorySelection{})
	return s.snapshotLocked(), nil
}

// Retry clears the error screen. The language is kept.
func (s *Session) Retry() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StateError); err != nil {
		return s.snapshotLocked(), err
	}
	s.resetRunLocked()
	s.lastCategory = nil
	s.setScreenLocked(welcome{})
	return s.snapshotLocked(), nil
}

// Close stops timers, invalidates pending fetches and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.resetRunLocked()
	s.inflight = 0
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Subscribe streams snapshots after every change. Slow readers only see the latest one.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	s.subSeq++
	id := s.subSeq
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				close(sub)
				delete(s.subscribers, id)
			}
		})
	}
}

// beginRunLocked resets the run and fetches the first question. It releases s.mu.
func (s *Session) beginRunLocked(ctx context.Context, category game.Category) (Snapshot, error) {
	s.resetRunLocked()
	s.runSeq++
	r := &run{
		id:            s.runSeq,
		category:      category,
		timerSeconds:  copyInt(s.timerSeconds),
		safetyScore:   scoring.InitialSafetyScore,
		questionCount: 1,
		history:       make([]game.HistoryItem, 0, 8),
	}
	s.run = r
	selected := category
	s.lastCategory = &selected
	translator := s.translator
	s.setScreenLocked(loading{purpose: LoadMission})
	token := s.beginFetchLocked()
	s.mu.Unlock()

	fetchCtx, cancel := s.fetchContext(ctx)
	question, err := s.deps.Content.InitialQuestion(fetchCtx, translator, category)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishFetchLocked(token) {
		return s.snapshotLocked(), ErrStaleFetch
	}
	if err != nil {
		log.Printf("[session] %s initial question for %s failed: %v", s.id, category.Key, err)
		s.setScreenLocked(failure{message: err.Error()})
		return s.snapshotLocked(), nil
	}

	r.scenario = &game.Scenario{ImageURL: s.deps.Images(category.Key), QuestionData: question}
	s.startTurnLocked(r)
	s.setScreenLocked(playing{})
	return s.snapshotLocked(), nil
}

// endRunLocked grants XP once per run and fetches the summary. It releases s.mu.
func (s *Session) endRunLocked(ctx context.Context, r *run) (Snapshot, error) {
	if r.ended {
		defer s.mu.Unlock()
		return s.snapshotLocked(), ErrInvalidTransition
	}
	r.ended = true
	s.timer.Stop()
	if r.endTimer != nil {
		r.endTimer.Stop()
	}

	base, total := scoring.EarnedXP(r.safetyScore, r.bonusXP)
	award := s.deps.Progression.Grant(context.WithoutCancel(ctx), total)

	headline := "gameOverFailed"
	if r.safetyScore > 0 {
		headline = "gameOverComplete"
	}
	report := Report{
		Completed:         r.safetyScore > 0,
		Headline:          s.translator.Translate(headline),
		FinalScore:        r.safetyScore,
		QuestionsAnswered: len(r.history),
		BaseXP:            base,
		BonusXP:           total - base,
		XPEarned:          total,
		LeveledUp:         award.LeveledUp,
		Progression:       award.After,
	}
	log.Printf("[session] %s run %d ended: score=%d xp=%d level=%d", s.id, r.id, r.safetyScore, total, award.After.Level)

	history := append([]game.HistoryItem(nil), r.history...)
	category := r.category
	translator := s.translator
	s.setScreenLocked(loading{purpose: LoadSummary})
	token := s.beginFetchLocked()
	s.mu.Unlock()

	fetchCtx, cancel := s.fetchContext(ctx)
	report.Summary = s.deps.Content.Summary(fetchCtx, translator, category, history)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishFetchLocked(token) {
		return s.snapshotLocked(), ErrStaleFetch
	}
	s.setScreenLocked(gameOver{report: report})
	return s.snapshotLocked(), nil
}

// resolveLocked records a turn outcome. A turn resolves at most once.
func (s *Session) resolveLocked(r *run, choice, remaining int, timedOut bool) {
	s.timer.Stop()

	q := r.scenario.QuestionData
	r.turn.answered = true
	r.turn.choice = choice
	r.turn.timedOut = timedOut
	r.turn.timeLeft = remaining

	correct := q.IsCorrect(choice)
	r.history = append(r.history, game.NewHistoryItem(q, choice))
	r.bonusXP += scoring.TimeBonus(correct, r.timerSeconds, remaining)
	if correct {
		return
	}

	r.safetyScore = scoring.ApplyPenalty(r.safetyScore)
	if r.safetyScore == 0 && !r.endScheduled {
		r.endScheduled = true
		runID := r.id
		r.endTimer = time.AfterFunc(s.deps.Settings.EndGameDelay, func() {
			s.autoEnd(runID)
		})
	}
}

func (s *Session) autoEnd(runID uint64) {
	s.mu.Lock()
	r := s.run
	if s.closed || r == nil || r.id != runID || r.ended || s.screen.state() != StateGame {
		s.mu.Unlock()
		return
	}
	if _, err := s.endRunLocked(context.Background(), r); err != nil {
		log.Printf("[session] %s automatic end failed: %v", s.id, err)
	}
}

func (s *Session) startTurnLocked(r *run) {
	s.turnSeq++
	seq := s.turnSeq
	r.turn = turn{seq: seq, choice: -1, timeLeft: timer.FallbackSeconds}
	if r.timerSeconds == nil {
		return
	}

	r.turn.timeLeft = *r.timerSeconds
	s.timer.Start(*r.timerSeconds,
		func(remaining int) { s.onTick(seq, remaining) },
		func() { s.onExpire(seq) },
	)
}

// currentTurnLocked returns the run whose unanswered turn matches seq.
func (s *Session) currentTurnLocked(seq uint64) *run {
	r := s.run
	if s.closed || r == nil || r.scenario == nil || r.turn.seq != seq || r.turn.answered {
		return nil
	}
	if s.screen.state() != StateGame {
		return nil
	}
	return r
}

func (s *Session) onTick(seq uint64, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.currentTurnLocked(seq)
	if r == nil {
		return
	}
	r.turn.timeLeft = remaining
	s.notifyLocked()
}

func (s *Session) onExpire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.currentTurnLocked(seq)
	if r == nil {
		return
	}
	choice := r.scenario.QuestionData.IncorrectChoice()
	log.Printf("[session] %s time up on question %d, recording choice %d", s.id, r.questionCount, choice)
	s.resolveLocked(r, choice, 0, true)
	s.notifyLocked()
}

// guardLocked rejects events outside the allowed states.
func (s *Session) guardLocked(allowed ...State) error {
	if s.closed {
		return ErrSessionClosed
	}
	current := s.screen.state()
	for _, st := range allowed {
		if current == st {
			return nil
		}
	}
	if current == StateLoading {
		return ErrBusy
	}
	return ErrInvalidTransition
}

// activeRunLocked returns the run backing the GAME screen or moves to the error screen.
func (s *Session) activeRunLocked() *run {
	if s.run == nil || s.run.scenario == nil {
		s.failMissingDataLocked()
		return nil
	}
	return s.run
}

func (s *Session) failMissingDataLocked() {
	log.Printf("[session] %s missing scenario data in state %s", s.id, s.screen.state())
	s.resetRunLocked()
	s.setScreenLocked(failure{message: s.translator.Translate("errorMissingScenario"), missingData: true})
}

func (s *Session) resetRunLocked() {
	s.timer.Stop()
	if s.run != nil && s.run.endTimer != nil {
		s.run.endTimer.Stop()
	}
	s.run = nil
}

func (s *Session) beginFetchLocked() uint64 {
	s.fetchSeq++
	s.inflight = s.fetchSeq
	return s.inflight
}

// finishFetchLocked reports whether the response for token may still be applied.
func (s *Session) finishFetchLocked(token uint64) bool {
	if s.closed || s.inflight != token {
		log.Printf("[session] %s discarding stale response", s.id)
		return false
	}
	s.inflight = 0
	return true
}

// fetchContext detaches from the caller so an abandoned request cannot cancel a fetch.
func (s *Session) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if s.deps.Settings.FetchTimeout > 0 {
		return context.WithTimeout(base, s.deps.Settings.FetchTimeout)
	}
	return context.WithCancel(base)
}

func (s *Session) setScreenLocked(next screen) {
	s.screen = next
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
