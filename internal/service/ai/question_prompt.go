package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhouzirui/prepzone/backend/internal/model/game"
)

const questionFormatInstruction = "Output format: respond with exactly one JSON object and no other text. Fields: " +
	"question (string, the situation and what the trainee must decide), " +
	"choices (array of 3 or 4 short strings), " +
	"correctChoiceIndex (0-based integer index of the safest choice), " +
	"feedback (array of strings, one per choice in the same order, explaining the outcome of that choice)."

const initialQueryTemplate = "Start a new training scenario: %s. Describe the opening situation and ask the first question."

const nextQueryTemplate = "Continue the %s scenario from where my last answer left it. Ask a new question that does not repeat any earlier one."

const summarySystemPrompt = "You are an emergency preparedness coach. Reply in the same language as the request, in plain text of at most two short paragraphs. Do not use JSON or markdown headings."

func buildQuestionSystemPrompt(systemInstruction string) string {
	var builder strings.Builder
	builder.WriteString(strings.TrimSpace(systemInstruction))
	builder.WriteString("\n\n")
	builder.WriteString(questionFormatInstruction)
	return builder.String()
}

type questionPayload struct {
	Question           string   `json:"question"`
	Choices            []string `json:"choices"`
	CorrectChoiceIndex *int     `json:"correctChoiceIndex"`
	Feedback           []string `json:"feedback"`
}

// parseQuestionOutput 解析大模型返回的 JSON，允许前后夹杂代码块标记。
func parseQuestionOutput(content string) (game.Question, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return game.Question{}, fmt.Errorf("missing json object")
	}

	var payload questionPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return game.Question{}, err
	}
	if payload.CorrectChoiceIndex == nil {
		return game.Question{}, fmt.Errorf("missing correctChoiceIndex")
	}

	question := game.Question{
		Question:           strings.TrimSpace(payload.Question),
		Choices:            trimAll(payload.Choices),
		CorrectChoiceIndex: *payload.CorrectChoiceIndex,
		Feedback:           trimAll(payload.Feedback),
	}
	if err := question.Validate(); err != nil {
		return game.Question{}, err
	}
	return question, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
