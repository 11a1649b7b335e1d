package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingField   = errors.New("missing required field")
)

// Command names accepted by Apply.
const (
	CmdLanguage    = "language"
	CmdStart       = "start"
	CmdBack        = "back"
	CmdTimer       = "timer"
	CmdCategory    = "category"
	CmdAnswer      = "answer"
	CmdNext        = "next"
	CmdEnd         = "end"
	CmdRestart     = "restart"
	CmdNewScenario = "newScenario"
	CmdRetry       = "retry"
)

// Command is a player event in wire form.
type Command struct {
	Type         string `json:"type"`
	Language     string `json:"language,omitempty"`
	Category     string `json:"category,omitempty"`
	Choice       *int   `json:"choice,omitempty"`
	TimerSeconds *int   `json:"timerSeconds,omitempty"`
}

// Apply routes cmd to the matching event method.
func (s *Session) Apply(ctx context.Context, cmd Command) (Snapshot, error) {
	switch cmd.Type {
	case CmdLanguage:
		if cmd.Language == "" {
			return s.Snapshot(), fmt.Errorf("%w: language", ErrMissingField)
		}
		return s.SelectLanguage(cmd.Language)
	case CmdStart:
		return s.Start()
	case CmdBack:
		return s.Back()
	case CmdTimer:
		return s.SetTimer(cmd.TimerSeconds)
	case CmdCategory:
		if cmd.Category == "" {
			return s.Snapshot(), fmt.Errorf("%w: category", ErrMissingField)
		}
		return s.SelectCategory(ctx, cmd.Category)
	case CmdAnswer:
		if cmd.Choice == nil {
			return s.Snapshot(), fmt.Errorf("%w: choice", ErrMissingField)
		}
		return s.Answer(*cmd.Choice)
	case CmdNext:
		return s.Next(ctx)
	case CmdEnd:
		return s.EndGame(ctx)
	case CmdRestart:
		return s.Restart(ctx)
	case CmdNewScenario:
		return s.NewScenario()
	case CmdRetry:
		return s.Retry()
	default:
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}
