// Package content sequences calls to the question provider for a session.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
)

// Provider generates question content. Implementations make one request per call.
type Provider interface {
	GenerateInitialQuestion(ctx context.Context, categoryTitle, systemInstruction string) (game.Question, error)
	GenerateNextQuestion(ctx context.Context, categoryTitle, systemInstruction, contextString string) (game.Question, error)
	GenerateSummary(ctx context.Context, prompt string) (string, error)
}

// Fetch operations named in FetchError.
const (
	OpInitial = "initial"
	OpNext    = "next"
)

var errNoProvider = errors.New("content provider unavailable")

// FetchError is a failed initial or next-question fetch. Message is shown verbatim.
type FetchError struct {
	Op      string
	Message string
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }

// Orchestrator builds provider requests from session data.
type Orchestrator struct {
	provider Provider
}

// New returns an Orchestrator over provider. A nil provider fails every fetch.
func New(provider Provider) *Orchestrator {
	return &Orchestrator{provider: provider}
}

// InitialQuestion fetches the first question for category.
func (o *Orchestrator) InitialQuestion(ctx context.Context, t i18n.Translator, category game.Category) (game.Question, error) {
	if o.provider == nil {
		return game.Question{}, newFetchError(OpInitial, errNoProvider, t.Translate("errorUnknown"))
	}

	q, err := o.provider.GenerateInitialQuestion(ctx, t.Translate(category.TitleKey()), t.Translate("systemInstruction"))
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		log.Printf("[content] initial question failed for category=%s: %v", category.Key, err)
		return game.Question{}, newFetchError(OpInitial, err, t.Translate("errorUnknown"))
	}
	return q, nil
}

// NextQuestion fetches a follow-up grounded on the turn that just resolved with choice.
func (o *Orchestrator) NextQuestion(ctx context.Context, t i18n.Translator, category game.Category, prev game.Question, choice int) (game.Question, error) {
	if o.provider == nil {
		return game.Question{}, newFetchError(OpNext, errNoProvider, t.Translate("errorNextQuestion"))
	}

	contextString := BuildContext(t, prev, choice)
	q, err := o.provider.GenerateNextQuestion(ctx, t.Translate(category.TitleKey()), t.Translate("systemInstruction"), contextString)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		log.Printf("[content] next question failed for category=%s: %v", category.Key, err)
		return game.Question{}, newFetchError(OpNext, err, t.Translate("errorNextQuestion"))
	}
	return q, nil
}

// Summary requests the end-of-game review. It never fails: provider errors become the
// noSummaryError text and an empty review becomes noSummary.
func (o *Orchestrator) Summary(ctx context.Context, t i18n.Translator, category game.Category, history []game.HistoryItem) string {
	if o.provider == nil {
		return t.Translate("noSummaryError")
	}

	prompt, err := BuildSummaryPrompt(t, category, history)
	if err != nil {
		log.Printf("[content] failed to build summary prompt: %v", err)
		return t.Translate("noSummaryError")
	}

	summary, err := o.provider.GenerateSummary(ctx, prompt)
	if err != nil {
		log.Printf("[content] summary failed for category=%s, using fallback: %v", category.Key, err)
		return t.Translate("noSummaryError")
	}
	if strings.TrimSpace(summary) == "" {
		return t.Translate("noSummary")
	}
	return summary
}

// BuildContext summarises the resolved turn for the next request.
func BuildContext(t i18n.Translator, q game.Question, choice int) string {
	verdict := t.Translate("context_incorrect")
	if q.IsCorrect(choice) {
		verdict = t.Translate("context_correct")
	}
	return fmt.Sprintf(`%s "%s". %s "%s". %s. %s "%s".`,
		t.Translate("context_previousQuestion"), q.Question,
		t.Translate("context_myChoice"), q.ChoiceText(choice),
		verdict,
		t.Translate("context_feedback"), q.FeedbackText(choice),
	)
}

// BuildSummaryPrompt serialises the full history behind the localized preamble.
func BuildSummaryPrompt(t i18n.Translator, category game.Category, history []game.HistoryItem) (string, error) {
	if history == nil {
		history = []game.HistoryItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(history); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s '%s'. %s %s",
		t.Translate("summaryPrompt_start"),
		t.Translate(category.TitleKey()),
		t.Translate("summaryPrompt_middle"),
		strings.TrimSpace(buf.String()),
	), nil
}

func newFetchError(op string, err error, fallback string) *FetchError {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = fallback
	}
	return &FetchError{Op: op, Message: message, Err: err}
}
