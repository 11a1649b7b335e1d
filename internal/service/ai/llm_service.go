package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/zhouzirui/prepzone/backend/internal/config"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
)

// Service generates scenario questions and summaries with an eino chat chain.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates a new AI service instance from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel wires the chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile question chain: %w", err)
	}

	return &Service{
		cfg:   cfg,
		chain: runnable,
	}, nil
}

// GenerateInitialQuestion asks for the opening question of a scenario.
func (s *Service) GenerateInitialQuestion(ctx context.Context, categoryTitle, systemInstruction string) (game.Question, error) {
	input := map[string]any{
		"system":  buildQuestionSystemPrompt(systemInstruction),
		"history": []*schema.Message(nil),
		"query":   fmt.Sprintf(initialQueryTemplate, categoryTitle),
	}
	return s.generateQuestion(ctx, categoryTitle, input)
}

// GenerateNextQuestion asks for a follow-up, grounding the model on the previous turn.
func (s *Service) GenerateNextQuestion(ctx context.Context, categoryTitle, systemInstruction, contextString string) (game.Question, error) {
	var history []*schema.Message
	if strings.TrimSpace(contextString) != "" {
		history = []*schema.Message{schema.UserMessage(contextString)}
	}

	input := map[string]any{
		"system":  buildQuestionSystemPrompt(systemInstruction),
		"history": history,
		"query":   fmt.Sprintf(nextQueryTemplate, categoryTitle),
	}
	return s.generateQuestion(ctx, categoryTitle, input)
}

// GenerateSummary returns a free-text performance review for prompt.
func (s *Service) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	input := map[string]any{
		"system":  summarySystemPrompt,
		"history": []*schema.Message(nil),
		"query":   prompt,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run summary chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("empty summary response")
	}

	log.Printf("[ai] generated summary with model=%s, length=%d", s.cfg.Model, len(response.Content))
	return strings.TrimSpace(response.Content), nil
}

func (s *Service) generateQuestion(ctx context.Context, categoryTitle string, input map[string]any) (game.Question, error) {
	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return game.Question{}, fmt.Errorf("failed to run question chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return game.Question{}, fmt.Errorf("model returned no content")
	}

	question, err := parseQuestionOutput(response.Content)
	if err != nil {
		return game.Question{}, fmt.Errorf("failed to parse question: %w", err)
	}

	log.Printf("[ai] generated question with model=%s for category=%q, choices=%d", s.cfg.Model, categoryTitle, len(question.Choices))
	return question, nil
}
