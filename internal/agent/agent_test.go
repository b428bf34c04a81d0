package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/require"

	"interviewlab/internal/agent/tools"
)

// scriptedGateway replays a fixed sequence of responses and records what the
// orchestrator submitted on every call. Once the script runs out it repeats
// the final response.
type scriptedGateway struct {
	mu        sync.Mutex
	script    []Response
	seen      [][]Message
	seenTools [][]openai.Tool
	err       error
}

func (g *scriptedGateway) next(messages []Message, toolSet []openai.Tool) (Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return Response{}, g.err
	}

	g.seen = append(g.seen, append([]Message(nil), messages...))
	g.seenTools = append(g.seenTools, toolSet)

	idx := len(g.seen) - 1
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	return g.script[idx], nil
}

func (g *scriptedGateway) Invoke(_ context.Context, messages []Message, toolSet []openai.Tool) (Response, error) {
	return g.next(messages, toolSet)
}

func (g *scriptedGateway) Stream(_ context.Context, messages []Message, toolSet []openai.Tool, onDelta func(string)) (Response, error) {
	resp, err := g.next(messages, toolSet)
	if err != nil {
		return Response{}, err
	}
	if onDelta != nil && resp.Content != "" {
		// Split the content into two fragments to exercise assembly.
		half := len(resp.Content) / 2
		onDelta(resp.Content[:half])
		onDelta(resp.Content[half:])
	}
	return resp, nil
}

type echoTool struct {
	tools.BaseTool
}

func newEchoTool() *echoTool {
	return &echoTool{
		BaseTool: tools.BaseTool{
			ToolName:        "echo",
			ToolDescription: "Echo the msg argument back",
			ToolParameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"msg": {Type: jsonschema.String},
				},
				Required: []string{"msg"},
			},
		},
	}
}

func (t *echoTool) Execute(_ context.Context, args string) (string, error) {
	var parsed struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", err
	}
	return parsed.Msg, nil
}

type failingTool struct {
	tools.BaseTool
}

func newFailingTool() *failingTool {
	return &failingTool{
		BaseTool: tools.BaseTool{
			ToolName:        "explode",
			ToolDescription: "Always fails",
			ToolParameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			},
		},
	}
}

func (t *failingTool) Execute(context.Context, string) (string, error) {
	return "", errors.New("boom")
}

func newTestAgent(t *testing.T, gw Gateway, toolSet ...tools.Tool) *Agent {
	t.Helper()
	a, err := New(Options{Gateway: gw})
	require.NoError(t, err)
	a.RegisterTools(toolSet)
	return a
}

// requirePairing asserts every tool result matches exactly one outstanding
// request from the nearest prior assistant message, and vice versa.
func requirePairing(t *testing.T, messages []Message) {
	t.Helper()

	outstanding := make(map[string]bool)
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			for _, call := range m.ToolCalls {
				require.False(t, outstanding[call.ID], "request id %s issued while still unresolved", call.ID)
				outstanding[call.ID] = true
			}
		case RoleTool:
			require.True(t, outstanding[m.ToolCallID], "tool result %s has no outstanding request", m.ToolCallID)
			delete(outstanding, m.ToolCallID)
		}
	}
	require.Empty(t, outstanding, "requests left without results")
}

func TestChatReturnsFinalTextImmediately(t *testing.T) {
	gw := &scriptedGateway{script: []Response{{Content: "done"}}}
	a := newTestAgent(t, gw)

	out, err := a.Chat(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "done", out)
	require.Len(t, gw.seen, 1)

	// History holds the user turn and the final assistant turn.
	require.Len(t, a.History(), 2)
	requirePairing(t, a.History())
}

func TestChatExecutesToolAndFeedsResultBack(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call_1", Name: "echo", Arguments: `{"msg":"hi"}`}}},
		{Content: "echoed"},
	}}
	a := newTestAgent(t, gw, newEchoTool())

	out, err := a.Chat(context.Background(), "say hi")
	require.NoError(t, err)
	require.Equal(t, "echoed", out)

	var toolResults []Message
	for _, m := range a.History() {
		if m.Role == RoleTool {
			toolResults = append(toolResults, m)
		}
	}
	require.Len(t, toolResults, 1)
	require.Equal(t, "call_1", toolResults[0].ToolCallID)
	require.Equal(t, "hi", toolResults[0].Content)

	// The second model call must have seen the tool result.
	require.Len(t, gw.seen, 2)
	second := gw.seen[1]
	last := second[len(second)-1]
	require.Equal(t, RoleTool, last.Role)
	require.Equal(t, "hi", last.Content)

	requirePairing(t, a.History())
}

func TestChatReportsUnknownToolAndContinues(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call_1", Name: "ghost", Arguments: `{}`}}},
		{Content: "recovered"},
	}}
	a := newTestAgent(t, gw)

	out, err := a.Chat(context.Background(), "use ghost")
	require.NoError(t, err)
	require.Equal(t, "recovered", out)

	var toolResult Message
	for _, m := range a.History() {
		if m.Role == RoleTool {
			toolResult = m
		}
	}
	require.Contains(t, toolResult.Content, "not found")
	require.Contains(t, toolResult.Content, "ghost")
	requirePairing(t, a.History())
}

func TestChatConvertsToolFailureToText(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call_1", Name: "explode", Arguments: `{}`}}},
		{Content: "noted the failure"},
	}}
	a := newTestAgent(t, gw, newFailingTool())

	out, err := a.Chat(context.Background(), "go")
	require.NoError(t, err)
	require.Equal(t, "noted the failure", out)

	var toolResult Message
	for _, m := range a.History() {
		if m.Role == RoleTool {
			toolResult = m
		}
	}
	require.Contains(t, toolResult.Content, "explode")
	require.Contains(t, toolResult.Content, "boom")
	requirePairing(t, a.History())
}

func TestChatStopsAtIterationCap(t *testing.T) {
	// A gateway that always requests tools never lets the loop finish.
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call", Name: "echo", Arguments: `{"msg":"again"}`}}},
	}}
	a := newTestAgent(t, gw, newEchoTool())

	out, err := a.Chat(context.Background(), "loop forever")
	require.NoError(t, err)
	require.Equal(t, IterationCapMessage, out)
	require.Len(t, gw.seen, DefaultMaxToolIterations)
}

func TestChatIterationCapIsConfigurable(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call", Name: "echo", Arguments: `{"msg":"x"}`}}},
	}}
	a, err := New(Options{Gateway: gw, MaxToolIterations: 3})
	require.NoError(t, err)
	a.RegisterTool(newEchoTool())

	out, err := a.Chat(context.Background(), "loop")
	require.NoError(t, err)
	require.Equal(t, IterationCapMessage, out)
	require.Len(t, gw.seen, 3)
}

func TestChatPropagatesGatewayError(t *testing.T) {
	gw := &scriptedGateway{err: errors.New("connection refused")}
	a := newTestAgent(t, gw)

	_, err := a.Chat(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestChatExecutesParallelCallsInRequestOrder(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{
			{ID: "call_a", Name: "echo", Arguments: `{"msg":"first"}`},
			{ID: "call_b", Name: "echo", Arguments: `{"msg":"second"}`},
			{ID: "call_c", Name: "echo", Arguments: `{"msg":"third"}`},
		}},
		{Content: "all done"},
	}}
	a := newTestAgent(t, gw, newEchoTool())

	_, err := a.Chat(context.Background(), "fan out")
	require.NoError(t, err)

	var results []Message
	for _, m := range a.History() {
		if m.Role == RoleTool {
			results = append(results, m)
		}
	}
	require.Len(t, results, 3)
	require.Equal(t, []string{"call_a", "call_b", "call_c"},
		[]string{results[0].ToolCallID, results[1].ToolCallID, results[2].ToolCallID})
	require.Equal(t, []string{"first", "second", "third"},
		[]string{results[0].Content, results[1].Content, results[2].Content})
	requirePairing(t, a.History())
}

func TestSystemPromptIsSubmittedFirst(t *testing.T) {
	gw := &scriptedGateway{script: []Response{{Content: "ok"}}}
	a, err := New(Options{Gateway: gw, SystemPrompt: "be terse"})
	require.NoError(t, err)

	_, err = a.Chat(context.Background(), "hello")
	require.NoError(t, err)

	first := gw.seen[0][0]
	require.Equal(t, RoleSystem, first.Role)
	require.Equal(t, "be terse", first.Content)
}

func TestClearConversationIsIdempotent(t *testing.T) {
	gw := &scriptedGateway{script: []Response{{Content: "ok"}}}
	a, err := New(Options{Gateway: gw, SystemPrompt: "persist me"})
	require.NoError(t, err)

	_, err = a.Chat(context.Background(), "hello")
	require.NoError(t, err)
	require.NotEmpty(t, a.History())

	a.ClearConversation()
	require.Empty(t, a.History())
	a.ClearConversation()
	require.Empty(t, a.History())

	// The system prompt still leads the next submission.
	_, err = a.Chat(context.Background(), "again")
	require.NoError(t, err)
	last := gw.seen[len(gw.seen)-1]
	require.Equal(t, RoleSystem, last[0].Role)
	require.Equal(t, "persist me", last[0].Content)
}

func TestRegisterToolInvalidatesAdvertisedSchemas(t *testing.T) {
	gw := &scriptedGateway{script: []Response{{Content: "ok"}}}
	a := newTestAgent(t, gw, newEchoTool())

	_, err := a.Chat(context.Background(), "one")
	require.NoError(t, err)
	require.Len(t, gw.seenTools[0], 1)

	a.RegisterTool(newFailingTool())
	_, err = a.Chat(context.Background(), "two")
	require.NoError(t, err)
	require.Len(t, gw.seenTools[1], 2)
}

func TestStreamChatDeliversFragmentsOnlyForFinalText(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{Content: "thinking", ToolCalls: []ToolCallRequest{{ID: "call_1", Name: "echo", Arguments: `{"msg":"hi"}`}}},
		{Content: "final answer"},
	}}
	a := newTestAgent(t, gw, newEchoTool())

	var streamed strings.Builder
	out, err := a.StreamChat(context.Background(), "hello", func(fragment string) {
		streamed.WriteString(fragment)
	})
	require.NoError(t, err)
	require.Equal(t, "final answer", out)

	// Fragments from the tool-call turn must not leak to the caller.
	require.Equal(t, "final answer", streamed.String())
	requirePairing(t, a.History())
}

func TestStreamChatEmitsCapSentinel(t *testing.T) {
	gw := &scriptedGateway{script: []Response{
		{ToolCalls: []ToolCallRequest{{ID: "call", Name: "echo", Arguments: `{"msg":"x"}`}}},
	}}
	a, err := New(Options{Gateway: gw, MaxToolIterations: 2})
	require.NoError(t, err)
	a.RegisterTool(newEchoTool())

	var streamed strings.Builder
	out, err := a.StreamChat(context.Background(), "loop", func(fragment string) {
		streamed.WriteString(fragment)
	})
	require.NoError(t, err)
	require.Equal(t, IterationCapMessage, out)
	require.Equal(t, IterationCapMessage, streamed.String())
}

func TestConcurrentChatsAreSerialized(t *testing.T) {
	gw := &scriptedGateway{script: []Response{{Content: "ok"}}}
	a := newTestAgent(t, gw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := a.Chat(context.Background(), fmt.Sprintf("msg %d", n))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// 8 user turns and 8 assistant turns, no interleaving.
	messages := a.History()
	require.Len(t, messages, 16)
	for i, m := range messages {
		if i%2 == 0 {
			require.Equal(t, RoleUser, m.Role)
		} else {
			require.Equal(t, RoleAssistant, m.Role)
		}
	}
}
