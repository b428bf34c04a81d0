package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryPrependsSystemPromptOnce(t *testing.T) {
	h := NewConversationHistory("be helpful", 5)
	h.AddUser("hi")

	got := h.Get()
	require.Len(t, got, 2)
	require.Equal(t, RoleSystem, got[0].Role)
	require.Equal(t, "be helpful", got[0].Content)

	// A second Get must not stack another system message.
	got = h.Get()
	require.Len(t, got, 2)
	require.Equal(t, RoleSystem, got[0].Role)
}

func TestHistoryWithoutSystemPrompt(t *testing.T) {
	h := NewConversationHistory("", 5)
	h.AddUser("hi")

	got := h.Get()
	require.Len(t, got, 1)
	require.Equal(t, RoleUser, got[0].Role)
}

func TestHistoryClearKeepsSystemPrompt(t *testing.T) {
	h := NewConversationHistory("persist", 5)
	h.AddUser("hi")
	h.AddAssistant("hello", nil)

	h.Clear()
	require.Zero(t, h.Len())
	h.Clear()
	require.Zero(t, h.Len())

	got := h.Get()
	require.Len(t, got, 1)
	require.Equal(t, RoleSystem, got[0].Role)
}

func TestHistoryTrimsOldestExchanges(t *testing.T) {
	h := NewConversationHistory("sys", 2)
	for i := 1; i <= 5; i++ {
		h.AddUser(fmt.Sprintf("question %d", i))
		h.AddAssistant(fmt.Sprintf("answer %d", i), nil)
	}

	stored := h.Messages()
	require.Len(t, stored, 4)
	require.Equal(t, "question 4", stored[0].Content)
	require.Equal(t, "answer 5", stored[3].Content)
}

// A trimmed history must never keep a tool result whose request was dropped:
// exchanges leave the window whole.
func TestHistoryTrimNeverOrphansToolResults(t *testing.T) {
	h := NewConversationHistory("sys", 2)
	for i := 1; i <= 5; i++ {
		h.AddUser(fmt.Sprintf("question %d", i))
		if i == 3 {
			calls := []ToolCallRequest{
				{ID: "call_a", Name: "echo", Arguments: `{"msg":"a"}`},
				{ID: "call_b", Name: "echo", Arguments: `{"msg":"b"}`},
			}
			h.AddAssistant("", calls)
			h.AddToolResult("call_a", "echo", "a")
			h.AddToolResult("call_b", "echo", "b")
			h.AddAssistant(fmt.Sprintf("answer %d", i), nil)
			continue
		}
		h.AddAssistant(fmt.Sprintf("answer %d", i), nil)
	}

	stored := h.Messages()
	requested := make(map[string]bool)
	for _, m := range stored {
		switch m.Role {
		case RoleAssistant:
			for _, call := range m.ToolCalls {
				requested[call.ID] = true
			}
		case RoleTool:
			require.True(t, requested[m.ToolCallID],
				"orphan tool result %s survived trimming", m.ToolCallID)
		}
	}
}

// When the cut lands inside an exchange the boundary moves so request and
// results stay together.
func TestHistoryTrimExtendsAcrossExchangeBoundary(t *testing.T) {
	h := NewConversationHistory("sys", 1)

	h.AddUser("question 1")
	h.AddAssistant("answer 1", nil)
	h.AddUser("question 2")
	h.AddAssistant("", []ToolCallRequest{{ID: "call_x", Name: "echo", Arguments: `{}`}})
	h.AddToolResult("call_x", "echo", "x")

	stored := h.Messages()
	// The assistant request and its result must both be present.
	var hasRequest, hasResult bool
	for _, m := range stored {
		if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
			hasRequest = true
		}
		if m.Role == RoleTool && m.ToolCallID == "call_x" {
			hasResult = true
		}
	}
	require.Equal(t, hasRequest, hasResult, "request and result must live or die together")
	require.True(t, hasResult, "most recent exchange should be retained")
}

func TestHistoryTrimRetainsStoredSystemMessages(t *testing.T) {
	h := NewConversationHistory("", 1)
	h.messages = append(h.messages, Message{Role: RoleSystem, Content: "pinned"})
	for i := 1; i <= 4; i++ {
		h.AddUser(fmt.Sprintf("question %d", i))
		h.AddAssistant(fmt.Sprintf("answer %d", i), nil)
	}

	stored := h.Messages()
	require.Equal(t, RoleSystem, stored[0].Role)
	require.Equal(t, "pinned", stored[0].Content)
	require.Len(t, stored, 3)
}
