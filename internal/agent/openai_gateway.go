package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// GatewayConfig carries everything the OpenAI-compatible client needs. It is
// passed at construction; nothing here is read from process-wide state.
type GatewayConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	MaxResponseTokens int
}

// OpenAIGateway adapts any OpenAI-compatible chat-completion endpoint to the
// Gateway contract, including native tool calling and streaming.
type OpenAIGateway struct {
	client *openai.Client
	cfg    GatewayConfig
}

func NewOpenAIGateway(cfg GatewayConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gateway requires an API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("gateway requires a model name")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

func (g *OpenAIGateway) request(messages []Message, tools []openai.Tool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxResponseTokens,
	}
	if len(tools) > 0 {
		req.Tools = tools
	}
	return req
}

func (g *OpenAIGateway) Invoke(ctx context.Context, messages []Message, tools []openai.Tool) (Response, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(messages, tools))
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	return Response{
		Content:   msg.Content,
		ToolCalls: fromOpenAIToolCalls(msg.ToolCalls),
	}, nil
}

func (g *OpenAIGateway) Stream(ctx context.Context, messages []Message, tools []openai.Tool, onDelta func(string)) (Response, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(messages, tools))
	if err != nil {
		return Response{}, fmt.Errorf("chat completion stream: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	var calls []ToolCallRequest

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Response{}, fmt.Errorf("chat completion stream: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}

		// Tool calls arrive as indexed fragments; arguments accumulate
		// across chunks until the turn ends.
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(calls) <= idx {
				calls = append(calls, ToolCallRequest{})
			}
			if tc.ID != "" {
				calls[idx].ID = tc.ID
			}
			if tc.Function.Name != "" {
				calls[idx].Name = tc.Function.Name
			}
			calls[idx].Arguments += tc.Function.Arguments
		}
	}

	return Response{Content: content.String(), ToolCalls: calls}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		switch m.Role {
		case RoleAssistant:
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case RoleTool:
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.ToolName
		}
		out = append(out, msg)
	}
	return out
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []ToolCallRequest {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCallRequest, 0, len(calls))
	for _, tc := range calls {
		out = append(out, ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

var _ Gateway = (*OpenAIGateway)(nil)
