package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/store"
)

// RecommendArgs represents the arguments for the recommend_questions tool
type RecommendArgs struct {
	IntervieweeIDs []int64 `json:"interviewee_ids"`
	NumQuestions   int     `json:"num_questions,omitempty"`
}

// RecommendTool suggests practice questions per interviewee, targeting the
// question type with the lowest average score. First-time interviewees get a
// random draw from the bank.
type RecommendTool struct {
	BaseTool
	store store.Store
}

func NewRecommendTool(st store.Store) *RecommendTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"interviewee_ids": {
				Type:        jsonschema.Array,
				Description: "Interviewee ids to recommend questions for",
				Items: &jsonschema.Definition{
					Type: jsonschema.Integer,
				},
			},
			"num_questions": {
				Type:        jsonschema.Integer,
				Description: "Number of questions to recommend per interviewee (default 3, max 20)",
			},
		},
		Required: []string{"interviewee_ids"},
	}

	return &RecommendTool{
		BaseTool: BaseTool{
			ToolName:        "recommend_questions",
			ToolDescription: "Recommend practice questions based on each interviewee's history, targeting their weakest question type. Supports batch recommendation.",
			ToolParameters:  params,
		},
		store: st,
	}
}

func (t *RecommendTool) Execute(ctx context.Context, args string) (string, error) {
	var parsed RecommendArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(parsed.IntervieweeIDs) == 0 {
		return "", fmt.Errorf("interviewee_ids must not be empty")
	}
	if parsed.NumQuestions == 0 {
		parsed.NumQuestions = 3
	}
	if parsed.NumQuestions < 1 || parsed.NumQuestions > 20 {
		return "", fmt.Errorf("num_questions must be between 1 and 20, got %d", parsed.NumQuestions)
	}

	sections := make([]string, 0, len(parsed.IntervieweeIDs))
	for _, id := range parsed.IntervieweeIDs {
		sections = append(sections, t.recommendOne(ctx, id, parsed.NumQuestions))
	}
	return strings.Join(sections, "\n\n"), nil
}

func (t *RecommendTool) recommendOne(ctx context.Context, id int64, numQuestions int) string {
	iv, err := t.store.GetInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("No interviewee found with id=%d", id)
	}

	records, err := t.store.RecordsByInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("[%s] failed to load records: %v", iv.Name, err)
	}

	var questions []store.Question
	var header string
	if len(records) > 0 {
		weakType, weakAvg := weakestType(records)
		questions, err = t.store.QuestionsByType(ctx, weakType, numQuestions)
		header = fmt.Sprintf("[%s] weakest type is %q (average %.2f); suggested practice:\n", iv.Name, weakType, weakAvg)
	} else {
		questions, err = t.store.RandomQuestions(ctx, numQuestions)
		header = fmt.Sprintf("[%s] has no history yet; %d random questions:\n", iv.Name, numQuestions)
	}
	if err != nil {
		return fmt.Sprintf("[%s] failed to load questions: %v", iv.Name, err)
	}
	if len(questions) == 0 {
		return fmt.Sprintf("[%s] the question bank has nothing to recommend", iv.Name)
	}

	var sb strings.Builder
	sb.WriteString(header + strings.Repeat("-", 40) + "\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "  %d. [ID:%d] %s / %s\n     %s\n", i+1, q.ID, q.Type, q.Difficulty, preview(q.Content, 80))
	}
	return sb.String()
}

// weakestType returns the question type with the lowest average score.
func weakestType(records []store.InterviewRecord) (string, float64) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		qType := rec.Snapshot.Type
		if qType == "" {
			qType = "unknown"
		}
		if counts[qType] == 0 {
			order = append(order, qType)
		}
		sums[qType] += rec.Score
		counts[qType]++
	}

	weak := order[0]
	weakAvg := sums[weak] / float64(counts[weak])
	for _, qType := range order[1:] {
		avg := sums[qType] / float64(counts[qType])
		if avg < weakAvg {
			weak, weakAvg = qType, avg
		}
	}
	return weak, weakAvg
}
