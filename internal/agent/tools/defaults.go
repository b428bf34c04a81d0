package tools

import (
	"interviewlab/internal/mailer"
	"interviewlab/internal/store"
)

// DefaultTools returns the full interview tool set wired to the given store
// and mailer, in the order they should be registered.
func DefaultTools(st store.Store, m mailer.Mailer) []Tool {
	return []Tool{
		NewLookupTool(st),
		NewQuestionStatsTool(st),
		NewAnalysisTool(st),
		NewReportTool(st),
		NewRecommendTool(st),
		NewEmailTool(st, m),
	}
}
