package session

import (
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
)

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	SessionID    string        `json:"sessionId"`
	State        State         `json:"state"`
	Language     string        `json:"language,omitempty"`
	Progression  ProgressView  `json:"progression"`
	TimerSeconds *int          `json:"timerSeconds"`
	Category     *CategoryView `json:"category,omitempty"`
	Loading      *LoadingView  `json:"loading,omitempty"`
	Game         *GameView     `json:"game,omitempty"`
	GameOver     *Report       `json:"gameOver,omitempty"`
	Error        *ErrorView    `json:"error,omitempty"`
}

// ProgressView is the header progress bar.
type ProgressView struct {
	Level         int `json:"level"`
	CurrentXP     int `json:"currentXp"`
	XPToNextLevel int `json:"xpToNextLevel"`
}

// CategoryView names the selected category.
type CategoryView struct {
	Key   string `json:"key"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
}

// LoadingView describes the pending fetch.
type LoadingView struct {
	Purpose LoadPurpose `json:"purpose"`
	Message string      `json:"message"`
}

// GameView is the current turn. CorrectChoiceIndex is only revealed through Feedback.
type GameView struct {
	ImageURL      string        `json:"imageUrl"`
	Question      string        `json:"question"`
	Choices       []string      `json:"choices"`
	SafetyScore   int           `json:"safetyScore"`
	QuestionCount int           `json:"questionCount"`
	Timed         bool          `json:"timed"`
	TimeLeft      int           `json:"timeLeft"`
	Ticking       bool          `json:"ticking"`
	Answered      int           `json:"answered"`
	Feedback      *FeedbackView `json:"feedback,omitempty"`
}

// FeedbackView is shown once the turn has resolved.
type FeedbackView struct {
	Choice             int    `json:"choice"`
	Correct            bool   `json:"correct"`
	TimedOut           bool   `json:"timedOut"`
	CorrectChoiceIndex int    `json:"correctChoiceIndex"`
	Headline           string `json:"headline"`
	Text               string `json:"text"`
}

// ErrorView carries the message shown on the error screen.
type ErrorView struct {
	Message     string `json:"message"`
	MissingData bool   `json:"missingData,omitempty"`
}

func progressView(p game.Progression) ProgressView {
	return ProgressView{Level: p.Level, CurrentXP: p.CurrentXP, XPToNextLevel: p.XPToNextLevel()}
}

// snapshotLocked builds the view. Caller holds s.mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:    s.id,
		State:        s.screen.state(),
		Language:     s.language,
		Progression:  progressView(s.deps.Progression.Current()),
		TimerSeconds: copyInt(s.timerSeconds),
	}

	r := s.run
	if r != nil {
		snap.Category = &CategoryView{
			Key:   r.category.Key,
			Icon:  r.category.Icon,
			Title: s.translator.Translate(r.category.TitleKey()),
		}
	}

	switch sc := s.screen.(type) {
	case loading:
		snap.Loading = &LoadingView{Purpose: sc.purpose, Message: s.translator.Translate(loadingMessageKey(sc.purpose))}
		if r != nil && r.scenario != nil {
			snap.Game = s.gameViewLocked(r)
		}
	case playing:
		if r != nil && r.scenario != nil {
			snap.Game = s.gameViewLocked(r)
		}
	case gameOver:
		report := sc.report
		snap.GameOver = &report
	case failure:
		snap.Error = &ErrorView{Message: sc.message, MissingData: sc.missingData}
	}

	return snap
}

func (s *Session) gameViewLocked(r *run) *GameView {
	q := r.scenario.QuestionData
	view := &GameView{
		ImageURL:      r.scenario.ImageURL,
		Question:      q.Question,
		Choices:       append([]string(nil), q.Choices...),
		SafetyScore:   r.safetyScore,
		QuestionCount: r.questionCount,
		Timed:         r.timerSeconds != nil,
		TimeLeft:      r.turn.timeLeft,
		Ticking:       s.timer.Running(),
		Answered:      len(r.history),
	}

	if r.turn.answered {
		correct := q.IsCorrect(r.turn.choice)
		headline := "feedbackIncorrect"
		switch {
		case r.turn.timedOut:
			headline = "timesUp"
		case correct:
			headline = "feedbackCorrect"
		}
		view.Feedback = &FeedbackView{
			Choice:             r.turn.choice,
			Correct:            correct,
			TimedOut:           r.turn.timedOut,
			CorrectChoiceIndex: q.CorrectChoiceIndex,
			Headline:           s.translator.Translate(headline),
			Text:               q.FeedbackText(r.turn.choice),
		}
	}
	return view
}

func loadingMessageKey(purpose LoadPurpose) string {
	switch purpose {
	case LoadNext:
		return "loadingNext"
	case LoadSummary:
		return "loadingSummary"
	default:
		return "loadingMission"
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
