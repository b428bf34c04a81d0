package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/store"
)

// QuestionStatsTool reports how the question bank is distributed over types
// and difficulties. It takes no arguments.
type QuestionStatsTool struct {
	BaseTool
	store store.Store
}

func NewQuestionStatsTool(st store.Store) *QuestionStatsTool {
	return &QuestionStatsTool{
		BaseTool: BaseTool{
			ToolName:        "get_question_statistics",
			ToolDescription: "Get question bank statistics: total count plus the distribution over question types and difficulties",
			ToolParameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			},
		},
		store: st,
	}
}

func (t *QuestionStatsTool) Execute(ctx context.Context, _ string) (string, error) {
	stats, err := t.store.QuestionStats(ctx)
	if err != nil {
		return "", fmt.Errorf("reading question statistics: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question bank statistics\nTotal questions: %d\n\nBy type:\n", stats.Total)
	for _, lc := range stats.ByType {
		fmt.Fprintf(&sb, "  %s: %d\n", lc.Label, lc.Count)
	}
	sb.WriteString("\nBy difficulty:\n")
	for _, lc := range stats.ByDifficulty {
		fmt.Fprintf(&sb, "  %s: %d\n", lc.Label, lc.Count)
	}
	return sb.String(), nil
}
