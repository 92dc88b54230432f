package domain

// Route names the path a chat turn took.
type Route string

const (
	// RouteDirect means the model answered without calling a tool.
	RouteDirect Route = "direct"

	// RouteRetrieve means the retrieval tool was invoked before answering.
	RouteRetrieve Route = "retrieve"
)

// Decision is the per-turn routing outcome chosen by the model.
// It has exactly two implementations: DirectDecision and RetrieveDecision.
type Decision interface {
	Route() Route
	decision()
}

// DirectDecision carries the model's final answer when no tool was requested.
type DirectDecision struct {
	Answer string
}

// Route implements Decision.
func (DirectDecision) Route() Route { return RouteDirect }

func (DirectDecision) decision() {}

// RetrieveDecision asks for one retrieval tool invocation.
type RetrieveDecision struct {
	// CallID is the provider's identifier for the tool call, echoed back with the result.
	CallID string

	// Query is the search text the model passed to the tool.
	Query string

	// Arguments is the raw JSON argument object, kept for the follow-up message.
	Arguments string
}

// Route implements Decision.
func (RetrieveDecision) Route() Route { return RouteRetrieve }

func (RetrieveDecision) decision() {}

// AgentState is a state of the routing agent's per-turn state machine.
type AgentState int

const (
	AgentIdle AgentState = iota
	AgentDeciding
	AgentDirect
	AgentRetrieving
	AgentResponding
)

// String returns the state name.
func (s AgentState) String() string {
	switch s {
	case AgentIdle:
		return "idle"
	case AgentDeciding:
		return "deciding"
	case AgentDirect:
		return "direct"
	case AgentRetrieving:
		return "retrieving"
	case AgentResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// Answer is the outcome of one chat turn.
type Answer struct {
	// Text is the final natural-language answer.
	Text string

	// Route is the path the turn took.
	Route Route

	// ToolCalls is the number of retrieval tool invocations (0 or 1).
	ToolCalls int

	// Query is the text the model sent to the retrieval tool.
	Query string

	// Context is the retrieval tool output appended to the conversation.
	Context string

	// RetrievalFailed is set when the tool failed and the answer is a direct fallback.
	RetrievalFailed bool
}
