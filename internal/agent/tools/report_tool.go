package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/store"
)

// ReportArgs represents the arguments for the generate_reports tool
type ReportArgs struct {
	IntervieweeIDs []int64 `json:"interviewee_ids"`
}

// ReportTool renders a full per-question interview report for one or more
// interviewees. The output pairs with send_report_email.
type ReportTool struct {
	BaseTool
	store store.Store
}

func NewReportTool(st store.Store) *ReportTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"interviewee_ids": {
				Type:        jsonschema.Array,
				Description: "Interviewee ids to report on",
				Items: &jsonschema.Definition{
					Type: jsonschema.Integer,
				},
			},
		},
		Required: []string{"interviewee_ids"},
	}

	return &ReportTool{
		BaseTool: BaseTool{
			ToolName:        "generate_reports",
			ToolDescription: "Generate a detailed interview report (per-question detail plus summary statistics) for one or more interviewees. The returned text can be sent with the send_report_email tool.",
			ToolParameters:  params,
		},
		store: st,
	}
}

func (t *ReportTool) Execute(ctx context.Context, args string) (string, error) {
	var parsed ReportArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(parsed.IntervieweeIDs) == 0 {
		return "", fmt.Errorf("interviewee_ids must not be empty")
	}

	reports := make([]string, 0, len(parsed.IntervieweeIDs))
	for _, id := range parsed.IntervieweeIDs {
		reports = append(reports, t.reportOne(ctx, id))
	}
	return strings.Join(reports, "\n\n"), nil
}

func (t *ReportTool) reportOne(ctx context.Context, id int64) string {
	iv, err := t.store.GetInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("No interviewee found with id=%d", id)
	}

	records, err := t.store.RecordsByInterviewee(ctx, id)
	if err != nil {
		return fmt.Sprintf("[%s] failed to load records: %v", iv.Name, err)
	}
	if len(records) == 0 {
		return fmt.Sprintf("[%s] has no answer records; report cannot be generated", iv.Name)
	}

	sep := strings.Repeat("=", 60)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", sep, centered("Interview Report", 60), sep)
	fmt.Fprintf(&sb, "Name: %s  Email: %s  Phone: %s\n\n", iv.Name, orUnset(iv.Email), orUnset(iv.Phone))
	sb.WriteString("Question detail\n" + strings.Repeat("-", 60) + "\n")

	var total, max, min float64
	min = records[0].Score
	for i, rec := range records {
		total += rec.Score
		if rec.Score > max {
			max = rec.Score
		}
		if rec.Score < min {
			min = rec.Score
		}

		fmt.Fprintf(&sb, "\nQuestion %d  Type:%s  Difficulty:%s  Score:%.1f\n",
			i+1, orUnknown(rec.Snapshot.Type), orUnknown(rec.Snapshot.Difficulty), rec.Score)
		fmt.Fprintf(&sb, "  Content: %s\n", preview(rec.Snapshot.Content, 60))
		fmt.Fprintf(&sb, "  Answered: %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		if rec.Snapshot.Remark != "" {
			fmt.Fprintf(&sb, "  Remark: %s\n", rec.Snapshot.Remark)
		}
	}

	avg := total / float64(len(records))
	fmt.Fprintf(&sb, "\n%s\nSummary\n  Questions:%d  Total:%.1f  Average:%.2f  Max:%.1f  Min:%.1f\n%s\n",
		sep, len(records), total, avg, max, min, sep)
	return sb.String()
}

func centered(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func preview(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
