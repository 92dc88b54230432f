package driven

import "context"

// LLMService provides chat completion with tool calling.
//
// Implementations may include:
//   - OpenAI (and OpenAI-compatible servers)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a multi-turn conversation.
	// When opts.Tools is non-empty the model may answer with tool calls instead of text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", "assistant" or "tool".
	Role string

	// Content is the message text.
	Content string

	// ToolCalls are the tool invocations requested by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string

	// Name is the tool name for tool messages.
	Name string
}

// ToolDefinition declares a callable tool to the model.
type ToolDefinition struct {
	// Name is the function name the model uses to call the tool.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is the JSON schema of the argument object.
	Parameters map[string]any
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	// ID is the provider-assigned call identifier.
	ID string

	// Name is the tool being called.
	Name string

	// Arguments is the JSON-encoded argument object.
	Arguments string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Tools are the tools the model may call.
	Tools []ToolDefinition
}

// ChatResponse is the model's reply: text, tool calls, or both.
type ChatResponse struct {
	// Content is the text part of the reply.
	Content string

	// ToolCalls are the requested tool invocations, in model order.
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocation.
func (r *ChatResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}
