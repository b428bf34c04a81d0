package agent

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestToOpenAIMessagesCarriesToolMetadata(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "", ToolCalls: []ToolCallRequest{
			{ID: "call_1", Name: "echo", Arguments: `{"msg":"hi"}`},
		}},
		{Role: RoleTool, Content: "hi", ToolCallID: "call_1", ToolName: "echo"},
		{Role: RoleAssistant, Content: "done"},
	}

	out := toOpenAIMessages(messages)
	require.Len(t, out, 5)

	require.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	require.Equal(t, openai.ChatMessageRoleUser, out[1].Role)

	require.Equal(t, openai.ChatMessageRoleAssistant, out[2].Role)
	require.Len(t, out[2].ToolCalls, 1)
	require.Equal(t, "call_1", out[2].ToolCalls[0].ID)
	require.Equal(t, openai.ToolTypeFunction, out[2].ToolCalls[0].Type)
	require.Equal(t, "echo", out[2].ToolCalls[0].Function.Name)
	require.Equal(t, `{"msg":"hi"}`, out[2].ToolCalls[0].Function.Arguments)

	require.Equal(t, openai.ChatMessageRoleTool, out[3].Role)
	require.Equal(t, "call_1", out[3].ToolCallID)
	require.Equal(t, "echo", out[3].Name)

	require.Empty(t, out[4].ToolCalls)
}

func TestFromOpenAIToolCalls(t *testing.T) {
	require.Nil(t, fromOpenAIToolCalls(nil))

	calls := fromOpenAIToolCalls([]openai.ToolCall{
		{ID: "a", Function: openai.FunctionCall{Name: "echo", Arguments: `{}`}},
		{ID: "b", Function: openai.FunctionCall{Name: "lookup", Arguments: `{"name":"x"}`}},
	})
	require.Len(t, calls, 2)
	require.Equal(t, ToolCallRequest{ID: "a", Name: "echo", Arguments: `{}`}, calls[0])
	require.Equal(t, ToolCallRequest{ID: "b", Name: "lookup", Arguments: `{"name":"x"}`}, calls[1])
}

func TestNewOpenAIGatewayRequiresKeyAndModel(t *testing.T) {
	_, err := NewOpenAIGateway(GatewayConfig{Model: "gpt-4o"})
	require.Error(t, err)

	_, err = NewOpenAIGateway(GatewayConfig{APIKey: "sk-test"})
	require.Error(t, err)

	gw, err := NewOpenAIGateway(GatewayConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	require.NotNil(t, gw)
}
