package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/mailer"
	"interviewlab/internal/store"
)

const defaultEmailSubject = "Your interview report"

// EmailRecipient is one entry of the send_report_email recipient list.
type EmailRecipient struct {
	IntervieweeID int64  `json:"interviewee_id"`
	ReportContent string `json:"report_content"`
	Subject       string `json:"subject,omitempty"`
}

// EmailArgs represents the arguments for the send_report_email tool
type EmailArgs struct {
	Recipients []EmailRecipient `json:"recipients"`
}

// EmailTool mails report text to interviewees, resolving addresses through
// the store and delivering per-recipient outcome lines.
type EmailTool struct {
	BaseTool
	store  store.Store
	mailer mailer.Mailer
}

func NewEmailTool(st store.Store, m mailer.Mailer) *EmailTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"recipients": {
				Type:        jsonschema.Array,
				Description: "Recipients; each entry holds interviewee_id (used to look up the address), report_content (the mail body), and an optional subject",
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"interviewee_id": {
							Type:        jsonschema.Integer,
							Description: "Interviewee id, used to resolve the email address",
						},
						"report_content": {
							Type:        jsonschema.String,
							Description: "Mail body, usually the report text",
						},
						"subject": {
							Type:        jsonschema.String,
							Description: "Mail subject (defaults to \"Your interview report\")",
						},
					},
					Required: []string{"interviewee_id", "report_content"},
				},
			},
		},
		Required: []string{"recipients"},
	}

	return &EmailTool{
		BaseTool: BaseTool{
			ToolName:        "send_report_email",
			ToolDescription: "Send interview reports to interviewees by email. Accepts a list of recipients for batch delivery and reports the outcome per recipient.",
			ToolParameters:  params,
		},
		store:  st,
		mailer: m,
	}
}

func (t *EmailTool) Execute(ctx context.Context, args string) (string, error) {
	var parsed EmailArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(parsed.Recipients) == 0 {
		return "", fmt.Errorf("recipients must not be empty")
	}

	lines := make([]string, 0, len(parsed.Recipients))
	for _, rcpt := range parsed.Recipients {
		lines = append(lines, t.sendOne(ctx, rcpt))
	}
	return strings.Join(lines, "\n"), nil
}

func (t *EmailTool) sendOne(ctx context.Context, rcpt EmailRecipient) string {
	iv, err := t.store.GetInterviewee(ctx, rcpt.IntervieweeID)
	if err != nil {
		return fmt.Sprintf("id=%d: no such interviewee", rcpt.IntervieweeID)
	}
	if strings.TrimSpace(iv.Email) == "" {
		return fmt.Sprintf("[%s] has no email address on record; skipped", iv.Name)
	}

	subject := rcpt.Subject
	if subject == "" {
		subject = defaultEmailSubject
	}

	if err := t.mailer.Send(ctx, iv.Email, subject, rcpt.ReportContent); err != nil {
		return fmt.Sprintf("[%s] (%s) delivery failed: %v", iv.Name, iv.Email, err)
	}
	return fmt.Sprintf("[%s] report sent to %s", iv.Name, iv.Email)
}
