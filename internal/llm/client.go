// Package llm provides LLM client implementations.
package llm

import "context"

// Client is the interface the agent loop is written against: given a
// message list and a tool catalog, return either a final text message
// or a list of requested tool invocations. Any provider satisfying this
// contract is substitutable.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
