package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

var _ driving.ChatAgent = (*RoutingAgent)(nil)

// DefaultRoutingPrompt is used when no prompt store is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultRoutingPrompt = `You are a helpful AI assistant with access to uploaded PDF documents.

IMPORTANT: You have access to a function called 'query_documents' to search through uploaded PDFs.

ROUTING RULES:
1. For general questions or greetings (like "hi", "hello", "how are you"), respond directly without calling any functions.
2. When the user asks about specific content, people, or topics that might be in the documents, call the query_documents function.

Examples of when TO call query_documents:
- "What experience does [name] have?"
- "Tell me about [topic] in the documents"
- "Find information about [anything]"
- "Summarize the document"

When you get results from query_documents:
- Provide information based ONLY on what was found
- If nothing relevant found, clearly state that
- Never mix up people or topics

Be concise and helpful.`

// DefaultRetrievalFailedPrompt is the system note added when the document search fails.
const DefaultRetrievalFailedPrompt = `Searching the uploaded documents failed (%s). ` +
	`Answer from general knowledge and tell the user that the documents could not be searched.`

// RetrievalFailedNotice prefixes answers produced after a failed document search.
const RetrievalFailedNotice = "(Document search is unavailable right now; this answer is not based on your documents.)\n\n"

// RoutingAgent answers chat turns, calling the retrieval tool when the model asks for it.
// The agent holds no conversation state; callers pass the history on every turn.
// Each model call is made once under the configured timeout.
type RoutingAgent struct {
	llm        driven.LLMService
	classifier driven.RouteClassifier
	tool       driving.RetrievalTool
	prompts    driven.PromptStore
	timeout    time.Duration

	mu       sync.RWMutex
	state    domain.AgentState
	active   int
	observer func(domain.AgentState)
}

// NewRoutingAgent creates an agent that routes with the LLM itself.
// A positive timeout bounds each model call.
func NewRoutingAgent(llm driven.LLMService, tool driving.RetrievalTool, timeout time.Duration) *RoutingAgent {
	return &RoutingAgent{
		llm:        llm,
		classifier: NewLLMClassifier(llm, timeout),
		tool:       tool,
		timeout:    timeout,
		state:      domain.AgentIdle,
	}
}

// SetClassifier replaces the route classifier.
func (a *RoutingAgent) SetClassifier(c driven.RouteClassifier) {
	a.classifier = c
}

// SetPromptStore sets the prompt store for customisable prompts.
func (a *RoutingAgent) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// OnStateChange registers a function called on every state transition of every turn.
func (a *RoutingAgent) OnStateChange(fn func(domain.AgentState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observer = fn
}

// State returns the latest transition of any running turn, or AgentIdle when
// none is running. With concurrent callers, use WithStateObserver to follow
// a single turn.
func (a *RoutingAgent) State() domain.AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

type stateObserverKey struct{}

// WithStateObserver returns a context whose Ask turn reports its own state
// transitions to fn, ending with AgentIdle.
func WithStateObserver(ctx context.Context, fn func(domain.AgentState)) context.Context {
	return context.WithValue(ctx, stateObserverKey{}, fn)
}

// turn tracks the state of one Ask call.
type turn struct {
	agent   *RoutingAgent
	observe func(domain.AgentState)
}

func (a *RoutingAgent) begin(ctx context.Context) *turn {
	a.mu.Lock()
	a.active++
	a.mu.Unlock()

	t := &turn{agent: a}
	if fn, ok := ctx.Value(stateObserverKey{}).(func(domain.AgentState)); ok {
		t.observe = fn
	}
	return t
}

func (t *turn) set(s domain.AgentState) {
	a := t.agent
	a.mu.Lock()
	a.state = s
	fn := a.observer
	a.mu.Unlock()

	t.notify(fn, s)
}

// end marks the turn finished. The shared state returns to idle only when
// no other turn is running.
func (t *turn) end() {
	a := t.agent
	a.mu.Lock()
	a.active--
	if a.active == 0 {
		a.state = domain.AgentIdle
	}
	fn := a.observer
	a.mu.Unlock()

	t.notify(fn, domain.AgentIdle)
}

func (t *turn) notify(fn func(domain.AgentState), s domain.AgentState) {
	logger.Debug("Agent state: %s", s)
	if fn != nil {
		fn(s)
	}
	if t.observe != nil {
		t.observe(s)
	}
}

// Ask runs one chat turn.
func (a *RoutingAgent) Ask(ctx context.Context, history []driven.ChatMessage, message string) (*domain.Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	logger.Section("Chat Turn")
	t := a.begin(ctx)
	defer t.end()

	messages := make([]driven.ChatMessage, 0, len(history)+4)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleSystem,
		Content: a.prompt(driven.PromptRoutingSystem, DefaultRoutingPrompt),
	})
	messages = append(messages, history...)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: message})

	t.set(domain.AgentDeciding)
	tool := a.tool.Definition()
	decision, err := a.classifier.Decide(ctx, messages, tool)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	switch d := decision.(type) {
	case domain.DirectDecision:
		t.set(domain.AgentDirect)
		t.set(domain.AgentResponding)
		logger.Info("Route: direct")
		return &domain.Answer{Text: d.Answer, Route: domain.RouteDirect}, nil

	case domain.RetrieveDecision:
		logger.Info("Route: retrieve (query %q)", d.Query)
		return a.retrieve(ctx, t, messages, tool, d)

	default:
		return nil, fmt.Errorf("%w: unexpected decision %T", domain.ErrModelUnavailable, decision)
	}
}

// retrieve calls the tool once and asks the model for the final answer.
func (a *RoutingAgent) retrieve(
	ctx context.Context, t *turn,
	messages []driven.ChatMessage, tool driven.ToolDefinition, d domain.RetrieveDecision,
) (*domain.Answer, error) {
	t.set(domain.AgentRetrieving)
	answer := &domain.Answer{Route: domain.RouteRetrieve, ToolCalls: 1, Query: d.Query}

	output, err := a.tool.QueryDocuments(ctx, d.Query)
	if err != nil {
		logger.Warn("Document search failed: %v", err)
		answer.RetrievalFailed = true
		tmpl := a.prompt(driven.PromptRetrievalFailed, DefaultRetrievalFailedPrompt)
		if !strings.Contains(tmpl, "%s") {
			tmpl = DefaultRetrievalFailedPrompt
		}
		note := fmt.Sprintf(tmpl, err)
		messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: note})
	} else {
		answer.Context = output
		messages = append(messages,
			driven.ChatMessage{
				Role:      driven.RoleAssistant,
				ToolCalls: []driven.ToolCall{{ID: d.CallID, Name: tool.Name, Arguments: d.Arguments}},
			},
			driven.ChatMessage{
				Role:       driven.RoleTool,
				Content:    output,
				ToolCallID: d.CallID,
				Name:       tool.Name,
			},
		)
	}

	t.set(domain.AgentResponding)
	var resp *driven.ChatResponse
	err = callOnce(ctx, a.timeout, func(ctx context.Context) error {
		var err error
		resp, err = a.llm.Chat(ctx, messages, driven.ChatOptions{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	answer.Text = resp.Content
	if answer.RetrievalFailed {
		answer.Text = RetrievalFailedNotice + answer.Text
	}
	return answer, nil
}

// prompt loads a prompt from the store, falling back to the default.
func (a *RoutingAgent) prompt(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	p, err := a.prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		if err != nil {
			logger.Debug("Prompt %s unavailable, using default: %v", name, err)
		}
		return fallback
	}
	return p
}
