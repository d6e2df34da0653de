// Package agent implements the core agent loop: a bounded iteration
// alternating model calls and tool executions until the model produces
// a final answer or the iteration budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/finchley/taskchat/internal/llm"
	"github.com/finchley/taskchat/internal/tools"
)

// MaxIterations caps model round-trips per turn. Even a model that
// requests tools forever is stopped here.
const MaxIterations = 5

// Canned responses for the loop's terminal edge cases.
const (
	// fallbackResponse substitutes for an empty final message.
	fallbackResponse = "I'm not sure how to help with that. I can assist with adding, listing, completing, deleting, and updating tasks."

	// exhaustedResponse closes a turn that hit the iteration budget.
	exhaustedResponse = "I've completed the operation. Is there anything else you need?"

	// unavailableResponse is returned when the provider cannot be reached.
	unavailableResponse = "I'm having trouble connecting to the AI service right now. Please try again in a moment."
)

// SystemPrompt is the fixed instruction prepended to every turn.
const SystemPrompt = `You are a helpful todo assistant. You help users manage their tasks using the provided tools.

Rules:
- ALWAYS use the provided tools (add_task, list_tasks, complete_task, delete_task, update_task) to perform task operations.
- NEVER fabricate or make up task data. Only report what the tools return.
- If the user's request is ambiguous, ask for clarification before acting.
- Be concise and friendly in your responses.
- When listing tasks, format them clearly.
- If a tool returns an error, relay it to the user in a helpful way.
- You can ONLY manage tasks for the current user. Do not reference other users.
- If the user asks something unrelated to task management, politely explain that you can help with adding, listing, completing, deleting, and updating tasks.`

// ToolMessage is the durable record of one tool invocation, persisted
// as a role "tool" message.
type ToolMessage struct {
	Content    string // serialized envelope, exactly as shown to the model
	ToolCallID string
	ToolName   string
	ToolArgs   string // arguments as parsed, re-encoded JSON
}

// Result is the outcome of one turn through the loop.
type Result struct {
	// Response is the final natural-language answer.
	Response string

	// ToolName and ToolResult describe the last tool invoked this
	// turn, if any, for the caller-facing action summary.
	ToolName   string
	ToolResult *tools.Envelope

	// ToolMessages holds every tool invocation in execution order.
	ToolMessages []ToolMessage
}

// Loop mediates between the language model and the tool registry.
type Loop struct {
	logger *slog.Logger
	llm    llm.Client
	tools  *tools.Registry
}

// NewLoop creates an agent loop.
func NewLoop(logger *slog.Logger, client llm.Client, registry *tools.Registry) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		llm:    client,
		tools:  registry,
	}
}

// Run executes one turn for the authenticated owner userID. history is
// the bounded conversation window (user/assistant roles only), oldest
// first; the system prompt is prepended here.
//
// The owner identity is injected into every tool execution and never
// taken from model-supplied arguments.
func (l *Loop) Run(ctx context.Context, userID string, history []llm.Message) *Result {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: SystemPrompt})
	messages = append(messages, history...)

	catalog := l.tools.List()
	result := &Result{}

	for iteration := 0; iteration < MaxIterations; iteration++ {
		resp, err := l.llm.Chat(ctx, messages, catalog)
		if err != nil {
			// Provider failures are not retried here; the turn ends
			// with a fixed apology and whatever already committed stays
			// committed.
			l.logger.Error("model call failed", "iteration", iteration, "error", err)
			return &Result{Response: unavailableResponse}
		}

		msg := resp.Message

		if len(msg.ToolCalls) == 0 {
			// Final text answer.
			result.Response = msg.Content
			if result.Response == "" {
				result.Response = fallbackResponse
			}
			return result
		}

		// Record the assistant turn carrying the raw tool-call requests
		// so tool results can be correlated on the next model call.
		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})

		// Execute sequentially, in the order requested; later calls may
		// depend on earlier results.
		for _, call := range msg.ToolCalls {
			name := call.Function.Name

			var args map[string]any
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					l.logger.Warn("malformed tool arguments", "tool", name, "error", err)
					args = nil
				}
			}

			l.logger.Info("tool call", "tool", name, "args", call.Function.Arguments)

			env := l.tools.Execute(ctx, userID, name, args)
			payload := env.JSON()

			l.logger.Info("tool result", "tool", name, "success", env.Success)

			result.ToolName = name
			result.ToolResult = &env

			argsJSON, _ := json.Marshal(args)
			result.ToolMessages = append(result.ToolMessages, ToolMessage{
				Content:    payload,
				ToolCallID: call.ID,
				ToolName:   name,
				ToolArgs:   string(argsJSON),
			})

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    payload,
				ToolCallID: call.ID,
			})
		}
	}

	// Budget exhausted: soft success, preserving the tool record.
	result.Response = exhaustedResponse
	return result
}
