package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure LLMClassifier implements the interface.
var _ driven.RouteClassifier = (*LLMClassifier)(nil)

// LLMClassifier lets the language model choose the route by offering it the tool.
// A reply without tool calls is a direct answer; otherwise the first call
// naming the tool is honoured and any others are ignored.
// The model is called once per decision; failures are returned unretried.
type LLMClassifier struct {
	llm     driven.LLMService
	timeout time.Duration
}

// NewLLMClassifier creates a classifier backed by the LLM service.
// A positive timeout bounds each model call.
func NewLLMClassifier(llm driven.LLMService, timeout time.Duration) *LLMClassifier {
	return &LLMClassifier{llm: llm, timeout: timeout}
}

// Decide asks the model and converts its reply into a decision.
func (c *LLMClassifier) Decide(
	ctx context.Context, messages []driven.ChatMessage, tool driven.ToolDefinition,
) (domain.Decision, error) {
	var resp *driven.ChatResponse
	err := callOnce(ctx, c.timeout, func(ctx context.Context) error {
		var err error
		resp, err = c.llm.Chat(ctx, messages, driven.ChatOptions{Tools: []driven.ToolDefinition{tool}})
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, call := range resp.ToolCalls {
		if call.Name != tool.Name {
			logger.Warn("Ignoring call to unknown tool %q", call.Name)
			continue
		}
		if extra := len(resp.ToolCalls) - i - 1; extra > 0 {
			logger.Debug("Ignoring %d additional tool calls", extra)
		}
		return domain.RetrieveDecision{
			CallID:    call.ID,
			Query:     toolQuery(call.Arguments),
			Arguments: call.Arguments,
		}, nil
	}

	return domain.DirectDecision{Answer: resp.Content}, nil
}

// toolQuery extracts the query argument from a JSON argument object.
// Returns an empty string when the arguments cannot be decoded.
func toolQuery(arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		logger.Debug("Undecodable tool arguments %q: %v", arguments, err)
		return ""
	}
	return strings.TrimSpace(args.Query)
}
