package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"interviewlab/internal/store"
)

// LookupArgs represents the arguments for the lookup_interviewees_by_name tool
type LookupArgs struct {
	Name string `json:"name,omitempty"`
}

// LookupTool resolves interviewee names to ids via substring matching
type LookupTool struct {
	BaseTool
	store store.Store
}

func NewLookupTool(st store.Store) *LookupTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name": {
				Type:        jsonschema.String,
				Description: "Interviewee name, substring match; pass an empty string to list everyone",
			},
		},
	}

	return &LookupTool{
		BaseTool: BaseTool{
			ToolName:        "lookup_interviewees_by_name",
			ToolDescription: "Find interviewees by name (substring match) and return their ids and contact details. Always call this first when the user refers to a person by name.",
			ToolParameters:  params,
		},
		store: st,
	}
}

func (t *LookupTool) Execute(ctx context.Context, args string) (string, error) {
	var parsed LookupArgs
	if args != "" {
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	name := strings.TrimSpace(parsed.Name)
	matches, err := t.store.SearchInterviewees(ctx, name)
	if err != nil {
		return "", fmt.Errorf("searching interviewees: %w", err)
	}

	if len(matches) == 0 {
		if name != "" {
			return fmt.Sprintf("No interviewee found with a name containing %q", name), nil
		}
		return "No interviewees on record yet", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d interviewee(s):\n", len(matches))
	for _, iv := range matches {
		fmt.Fprintf(&sb, "  - ID:%d  Name:%s  Email:%s  Phone:%s\n",
			iv.ID, iv.Name, orUnset(iv.Email), orUnset(iv.Phone))
	}
	return sb.String(), nil
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not set)"
	}
	return s
}
