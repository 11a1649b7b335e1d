package game

import (
	"errors"
	"fmt"
)

var (
	ErrTooFewChoices     = errors.New("question needs at least two choices")
	ErrCorrectIndexRange = errors.New("correct choice index out of range")
	ErrFeedbackMismatch  = errors.New("feedback count does not match choice count")
	ErrEmptyQuestionText = errors.New("question text is empty")
)

// Question is one generated multiple-choice prompt.
type Question struct {
	Question           string   `json:"question"`
	Choices            []string `json:"choices"`
	CorrectChoiceIndex int      `json:"correctChoiceIndex"`
	Feedback           []string `json:"feedback"`
}

// Validate checks the structural invariants a question must hold before it is shown.
func (q Question) Validate() error {
	if q.Question == "" {
		return ErrEmptyQuestionText
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewChoices, len(q.Choices))
	}
	if q.CorrectChoiceIndex < 0 || q.CorrectChoiceIndex >= len(q.Choices) {
		return fmt.Errorf("%w: %d of %d", ErrCorrectIndexRange, q.CorrectChoiceIndex, len(q.Choices))
	}
	if len(q.Feedback) != len(q.Choices) {
		return fmt.Errorf("%w: %d feedback, %d choices", ErrFeedbackMismatch, len(q.Feedback), len(q.Choices))
	}
	return nil
}

// IsCorrect reports whether choice is the correct index.
func (q Question) IsCorrect(choice int) bool {
	return choice == q.CorrectChoiceIndex
}

// ValidChoice reports whether choice addresses one of the choices.
func (q Question) ValidChoice(choice int) bool {
	return choice >= 0 && choice < len(q.Choices)
}

// IncorrectChoice returns the first index that is not the correct one, or 0 when
// every index is correct (single-choice question).
func (q Question) IncorrectChoice() int {
	for i := range q.Choices {
		if i != q.CorrectChoiceIndex {
			return i
		}
	}
	return 0
}

// ChoiceText returns the text at index, or "" when out of range.
func (q Question) ChoiceText(index int) string {
	if index < 0 || index >= len(q.Choices) {
		return ""
	}
	return q.Choices[index]
}

// FeedbackText returns the feedback for index, or "" when out of range.
func (q Question) FeedbackText(index int) string {
	if index < 0 || index >= len(q.Feedback) {
		return ""
	}
	return q.Feedback[index]
}

// Scenario pairs the fixed category image with the current question.
type Scenario struct {
	ImageURL     string   `json:"imageUrl"`
	QuestionData Question `json:"questionData"`
}

// HistoryItem records one resolved turn.
type HistoryItem struct {
	Question      string `json:"question"`
	UserChoice    string `json:"userChoice"`
	CorrectChoice string `json:"correctChoice"`
	IsCorrect     bool   `json:"isCorrect"`
}

// NewHistoryItem builds the record for choice on q.
func NewHistoryItem(q Question, choice int) HistoryItem {
	return HistoryItem{
		Question:      q.Question,
		UserChoice:    q.ChoiceText(choice),
		CorrectChoice: q.ChoiceText(q.CorrectChoiceIndex),
		IsCorrect:     q.IsCorrect(choice),
	}
}
