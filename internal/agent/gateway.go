package agent

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Response is one complete model turn: final text, tool-call requests, or
// both. A turn with no tool calls ends the agentic loop.
type Response struct {
	Content   string
	ToolCalls []ToolCallRequest
}

// Gateway is the language-model contract the orchestrator drives. Invoke
// returns a whole response; Stream delivers text fragments through onDelta as
// they arrive and still returns the assembled response, since tool-call
// completeness can only be judged once the turn is finished. Gateway errors
// are not recoverable inside the loop and propagate out of Chat.
type Gateway interface {
	Invoke(ctx context.Context, messages []Message, tools []openai.Tool) (Response, error)
	Stream(ctx context.Context, messages []Message, tools []openai.Tool, onDelta func(fragment string)) (Response, error)
}
