// Package agent implements the tool-calling conversational core: a registry
// of callable tools, an ordered conversation history, and the agentic loop
// that drives a language model until it produces a final text answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"interviewlab/internal/agent/tools"
	"interviewlab/internal/logger"
)

const defaultSystemPrompt = `You are a professional lab interview assistant.

Capabilities:
1. Name matching: when the user refers to a person by name, resolve the interviewee id with the lookup_interviewees_by_name tool before calling any analysis tool.
2. Batch handling: requests like "analyze everyone" or "compare Alice and Bob" mean calling the tools once per interviewee and merging the results.
3. Email delivery: after generating a report, it can be sent to the interviewee by email on request.
4. Multi-step work: chain as many tool calls as the task requires.

Ground rules:
- Always confirm ids via lookup before operating on a named person.
- For batch requests, call the tools per person and consolidate the results.
- Before emailing, make sure both the report content and the recipient address were resolved.
- Keep replies concise and professional.`

// DefaultMaxToolIterations is the hard safety bound against runaway
// tool-chaining.
const DefaultMaxToolIterations = 10

// IterationCapMessage is returned by Chat when the loop hits its iteration
// cap without the model producing a final text answer.
const IterationCapMessage = "Maximum tool iterations reached; the task did not complete."

// Options configure a new Agent.
type Options struct {
	Gateway           Gateway
	SystemPrompt      string
	MaxTurns          int
	MaxToolIterations int
}

// Agent owns one conversation history and one tool registry, and runs the
// agentic loop against its gateway. A single Agent serializes its Chat calls;
// separate Agents may share a store or registry concurrently.
type Agent struct {
	gateway  Gateway
	history  *ConversationHistory
	registry *tools.Registry

	maxToolIterations int

	// chatMu serializes the loop so concurrent Chat calls cannot interleave
	// request/result pairs in one history.
	chatMu sync.Mutex

	// mu guards the cached tool schema set, invalidated on registration.
	mu         sync.Mutex
	boundTools []openai.Tool
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Gateway == nil {
		return nil, errors.New("agent requires a model gateway")
	}

	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	maxIter := opts.MaxToolIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxToolIterations
	}

	return &Agent{
		gateway:           opts.Gateway,
		history:           NewConversationHistory(systemPrompt, opts.MaxTurns),
		registry:          tools.NewRegistry(),
		maxToolIterations: maxIter,
	}, nil
}

// RegisterTool adds a tool to the agent's registry and invalidates the cached
// schema set so the next model call advertises the updated tools.
func (a *Agent) RegisterTool(t tools.Tool) {
	a.registry.Register(t)
	a.mu.Lock()
	a.boundTools = nil
	a.mu.Unlock()
}

// RegisterTools adds each tool in turn.
func (a *Agent) RegisterTools(ts []tools.Tool) {
	for _, t := range ts {
		a.RegisterTool(t)
	}
}

func (a *Agent) toolSchemas() []openai.Tool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.boundTools == nil {
		a.boundTools = a.registry.OpenAITools()
	}
	return a.boundTools
}

// Chat runs one agentic exchange: the user input is appended to history, then
// the loop alternates model calls and tool executions until the model returns
// plain text or the iteration cap is hit. Tool failures never escape the
// loop; only gateway errors do.
func (a *Agent) Chat(ctx context.Context, userInput string) (string, error) {
	a.chatMu.Lock()
	defer a.chatMu.Unlock()

	a.history.AddUser(userInput)

	for iteration := 0; iteration < a.maxToolIterations; iteration++ {
		resp, err := a.gateway.Invoke(ctx, a.history.Get(), a.toolSchemas())
		if err != nil {
			return "", fmt.Errorf("model gateway: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			a.history.AddAssistant(resp.Content, nil)
			return resp.Content, nil
		}

		a.runToolCalls(ctx, resp)
	}

	logger.Warnf("Reached maximum tool iterations (%d)", a.maxToolIterations)
	return IterationCapMessage, nil
}

// StreamChat is Chat with the final-text branch delivered incrementally
// through onFragment. Tool-call turns are still fully buffered before any
// execution begins, since a tool call cannot be invoked from a partial
// argument payload.
func (a *Agent) StreamChat(ctx context.Context, userInput string, onFragment func(string)) (string, error) {
	a.chatMu.Lock()
	defer a.chatMu.Unlock()

	a.history.AddUser(userInput)

	for iteration := 0; iteration < a.maxToolIterations; iteration++ {
		// Fragments from a turn that ends in tool calls are held back; only
		// turns that produce the final answer stream to the caller.
		var buffered []string
		resp, err := a.gateway.Stream(ctx, a.history.Get(), a.toolSchemas(), func(fragment string) {
			buffered = append(buffered, fragment)
		})
		if err != nil {
			return "", fmt.Errorf("model gateway: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if onFragment != nil {
				for _, fragment := range buffered {
					onFragment(fragment)
				}
			}
			a.history.AddAssistant(resp.Content, nil)
			return resp.Content, nil
		}

		a.runToolCalls(ctx, resp)
	}

	logger.Warnf("Reached maximum tool iterations (%d)", a.maxToolIterations)
	if onFragment != nil {
		onFragment(IterationCapMessage)
	}
	return IterationCapMessage, nil
}

// runToolCalls records the assistant turn, executes every requested call, and
// appends one result per request so the next model call always sees a fully
// resolved history.
func (a *Agent) runToolCalls(ctx context.Context, resp Response) {
	a.history.AddAssistant(resp.Content, resp.ToolCalls)

	results := a.executeToolCalls(ctx, resp.ToolCalls)
	for _, r := range results {
		a.history.AddToolResult(r.id, r.name, r.content)
		logger.AgentDebugf("Tool call: %s -> %s", r.name, firstLine(r.content))
	}
}

type toolOutcome struct {
	id      string
	name    string
	content string
}

// executeToolCalls runs the calls of one assistant turn concurrently and
// returns the outcomes in request order. Every call yields exactly one
// outcome, success or not.
func (a *Agent) executeToolCalls(ctx context.Context, calls []ToolCallRequest) []toolOutcome {
	outcomes := make([]toolOutcome, len(calls))

	var g errgroup.Group
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			outcomes[i] = toolOutcome{
				id:      call.ID,
				name:    call.Name,
				content: a.executeToolCall(ctx, call),
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// executeToolCall resolves and invokes a single tool, converting every
// failure into a textual result the model can react to.
func (a *Agent) executeToolCall(ctx context.Context, call ToolCallRequest) string {
	result, err := a.registry.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrNotFound) {
			return fmt.Sprintf("Error: tool %q not found", call.Name)
		}
		return fmt.Sprintf("Error executing tool %q: %v", call.Name, err)
	}
	return result
}

// ClearConversation resets the history; the system prompt and the registered
// tools persist.
func (a *Agent) ClearConversation() {
	a.history.Clear()
}

// History returns a copy of the stored conversation for display or debugging.
func (a *Agent) History() []Message {
	return a.history.Messages()
}

// Tools returns the registered tools in registration order.
func (a *Agent) Tools() []tools.Tool {
	return a.registry.List()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}
