package session

import (
	"errors"
	"time"

	"github.com/zhouzirui/prepzone/backend/internal/model/game"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrBusy              = errors.New("a content request is in flight")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrNotAnswered       = errors.New("question not answered yet")
	ErrInvalidChoice     = errors.New("choice index out of range")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownLanguage   = errors.New("unsupported language")
	ErrInvalidTimer      = errors.New("timer must be empty or between 1 and 300 seconds")
	ErrGameEnding        = errors.New("game is ending")
	ErrStaleFetch        = errors.New("session moved on before the response arrived")
	ErrSessionClosed     = errors.New("session closed")
	ErrSessionNotFound   = errors.New("session not found")
)

// State names a screen of the training flow.
type State string

const (
	StateLanguageSelection State = "LANGUAGE_SELECTION"
	StateWelcome           State = "WELCOME"
	StateCategorySelection State = "CATEGORY_SELECTION"
	StateLoading           State = "LOADING"
	StateGame              State = "GAME"
	StateGameOver          State = "GAME_OVER"
	StateError             State = "ERROR"
)

// LoadPurpose tells which fetch a LOADING screen waits on.
type LoadPurpose string

const (
	LoadMission LoadPurpose = "mission"
	LoadNext    LoadPurpose = "next"
	LoadSummary LoadPurpose = "summary"
)

// TimerOptions are the durations offered before a session starts, besides no timer.
var TimerOptions = []int{15, 20, 30}

// screen is the machine's current state. Exactly one variant is active; data that
// only makes sense in one state lives on that variant.
type screen interface {
	state() State
}

type languageSelection struct{}

type welcome struct{}

type categorySelection struct{}

type loading struct {
	purpose LoadPurpose
}

// playing requires Session.run with a scenario; see Session.activeRunLocked.
type playing struct{}

type gameOver struct {
	report Report
}

type failure struct {
	message     string
	missingData bool
}

func (languageSelection) state() State { return StateLanguageSelection }
func (welcome) state() State           { return StateWelcome }
func (categorySelection) state() State { return StateCategorySelection }
func (loading) state() State           { return StateLoading }
func (playing) state() State           { return StateGame }
func (gameOver) state() State          { return StateGameOver }
func (failure) state() State           { return StateError }

// run is the transient state of one session, from category selection to game over.
type run struct {
	id            uint64
	category      game.Category
	scenario      *game.Scenario
	timerSeconds  *int
	safetyScore   int
	questionCount int
	history       []game.HistoryItem
	bonusXP       int
	turn          turn
	endScheduled  bool
	endTimer      *time.Timer
	ended         bool
}

type turn struct {
	seq      uint64
	answered bool
	choice   int
	timedOut bool
	timeLeft int
}

// Report is the game-over result.
type Report struct {
	Completed         bool             `json:"completed"`
	Headline          string           `json:"headline"`
	FinalScore        int              `json:"finalScore"`
	QuestionsAnswered int              `json:"questionsAnswered"`
	BaseXP            int              `json:"baseXp"`
	BonusXP           int              `json:"bonusXp"`
	XPEarned          int              `json:"xpEarned"`
	LeveledUp         bool             `json:"leveledUp"`
	Progression       game.Progression `json:"progression"`
	Summary           string           `json:"summary"`
}
