package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/store"
)

// AnalyzeArgs represents the arguments for the analyze_interviewees tool
type AnalyzeArgs struct {
	IntervieweeIDs []int64 `json:"interviewee_ids"`
}

// AnalysisTool summarizes one or more interviewees' scoring performance
type AnalysisTool struct {
	BaseTool
	store store.Store
}

func NewAnalysisTool(st store.Store) *AnalysisTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"interviewee_ids": {
				Type:        jsonschema.Array,
				Description: "Interviewee ids to analyze; multiple ids run as a batch",
				Items: &jsonschema.Definition{
					Type: jsonschema.Integer,
				},
			},
		},
		Required: []string{"interviewee_ids"},
	}

	return &AnalysisTool{
		BaseTool: BaseTool{
			ToolName:        "analyze_interviewees",
			ToolDescription: "Analyze the answering performance of one or more interviewees: totals, averages, per-type averages, and an overall rating. Pass an array of ids for batch analysis.",
			ToolParameters:  params,
		},
		store: st,
	}
}

func (t *AnalysisTool) Execute(ctx context.Context, args string) (string, error) {
	var parsed AnalyzeArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(parsed.IntervieweeIDs) == 0 {
		return "", fmt.Errorf("interviewee_ids must not be empty")
	}

	sections := make([]string, 0, len(parsed.IntervieweeIDs))
	for _, id := range parsed.IntervieweeIDs {
		sections = append(sections, t.analyzeOne(ctx, id))
	}
	sep := "\n" + strings.Repeat("=", 60) + "\n"
	return strings.Join(sections, sep), nil
}

func (t *AnalysisTool) analyzeOne(ctx context.Context, id int64) string {
	iv, err := t.store.GetInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("No interviewee found with id=%d", id)
	}

	records, err := t.store.RecordsByInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("[%s] failed to load records: %v", iv.Name, err)
	}
	if len(records) == 0 {
		return fmt.Sprintf("[%s] has no answer records yet", iv.Name)
	}

	var total, max, min float64
	min = records[0].Score
	typeScores := make(map[string][]float64)
	var typeOrder []string
	for _, rec := range records {
		total += rec.Score
		if rec.Score > max {
			max = rec.Score
		}
		if rec.Score < min {
			min = rec.Score
		}
		qType := rec.Snapshot.Type
		if qType == "" {
			qType = "unknown"
		}
		if _, seen := typeScores[qType]; !seen {
			typeOrder = append(typeOrder, qType)
		}
		typeScores[qType] = append(typeScores[qType], rec.Score)
	}
	avg := total / float64(len(records))

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] (ID:%d)\n", iv.Name, id)
	fmt.Fprintf(&sb, "  Email: %s  Registered: %s\n", orUnset(iv.Email), iv.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "  Questions: %d  Total: %.1f  Average: %.2f  Max: %.1f  Min: %.1f\n",
		len(records), total, avg, max, min)
	sb.WriteString("  Average by type:\n")
	for _, qType := range typeOrder {
		scores := typeScores[qType]
		var sum float64
		for _, s := range scores {
			sum += s
		}
		fmt.Fprintf(&sb, "    %s: %.2f (%d questions)\n", qType, sum/float64(len(scores)), len(scores))
	}
	fmt.Fprintf(&sb, "  Overall rating: %s\n", rating(avg))
	return sb.String()
}

func rating(avg float64) string {
	switch {
	case avg >= 8:
		return "excellent"
	case avg >= 6:
		return "good"
	case avg >= 4:
		return "pass"
	default:
		return "needs improvement"
	}
}
