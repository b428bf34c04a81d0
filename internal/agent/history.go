package agent

import (
	"sync"
	"time"
)

// ConversationHistory is the ordered, role-tagged message log for one session.
// It keeps at most maxTurns user/assistant pairs; trimming drops whole
// exchanges from the oldest end and never separates an assistant message from
// the tool results that answer it.
type ConversationHistory struct {
	mu           sync.Mutex
	systemPrompt string
	maxTurns     int
	messages     []Message
}

func NewConversationHistory(systemPrompt string, maxTurns int) *ConversationHistory {
	if maxTurns <= 0 {
		maxTurns = 30
	}
	return &ConversationHistory{
		systemPrompt: systemPrompt,
		maxTurns:     maxTurns,
	}
}

func (h *ConversationHistory) AddUser(content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, Message{
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	})
	h.trim()
}

// AddAssistant appends an assistant message, optionally carrying tool-call
// requests. Content may be empty when the model issued only tool calls.
func (h *ConversationHistory) AddAssistant(content string, toolCalls []ToolCallRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, Message{
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		Timestamp: time.Now(),
	})
	h.trim()
}

// AddToolResult appends a tool-result message tagged with the originating
// request id. The caller guarantees the id matches an outstanding request
// from the nearest prior assistant message.
func (h *ConversationHistory) AddToolResult(toolCallID, toolName, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Timestamp:  time.Now(),
	})
	h.trim()
}

// trim keeps the most recent 2*maxTurns user/assistant messages plus whatever
// tool results travel with them. If the cut would land on a tool result the
// boundary moves back to include the assistant message that requested it.
// Callers hold h.mu.
func (h *ConversationHistory) trim() {
	conversational := 0
	for _, m := range h.messages {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			conversational++
		}
	}
	if conversational <= h.maxTurns*2 {
		return
	}

	// Walk back from the end until enough user/assistant messages are kept.
	keep := h.maxTurns * 2
	cut := len(h.messages)
	for cut > 0 && keep > 0 {
		cut--
		if h.messages[cut].Role == RoleUser || h.messages[cut].Role == RoleAssistant {
			keep--
		}
	}

	// Never start the kept window on an orphan tool result.
	for cut > 0 && h.messages[cut].Role == RoleTool {
		cut--
	}

	var kept []Message
	for _, m := range h.messages[:cut] {
		if m.Role == RoleSystem {
			kept = append(kept, m)
		}
	}
	h.messages = append(kept, h.messages[cut:]...)
}

// Get returns the full ordered sequence for submission to the model, with the
// system prompt prepended once when configured and not already stored.
func (h *ConversationHistory) Get() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	hasSystem := false
	for _, m := range h.messages {
		if m.Role == RoleSystem {
			hasSystem = true
			break
		}
	}

	var out []Message
	if h.systemPrompt != "" && !hasSystem {
		out = append(out, Message{Role: RoleSystem, Content: h.systemPrompt})
	}
	return append(out, h.messages...)
}

// Clear empties the stored sequence. The system prompt persists and reappears
// on the next Get.
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Messages returns a copy of the stored sequence, without the prepended
// system prompt. Intended for display and debugging.
func (h *ConversationHistory) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

// Len reports the number of stored messages (system prompt not included).
func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
