package domain

// AgentKind identifies one of the specialized request handlers. The set is
// closed; routing is a tagged-variant transition, not dynamic dispatch by
// string key.
type AgentKind string

const (
	AgentOrchestrator AgentKind = "orchestrator"
	AgentPension      AgentKind = "pension"
	AgentRAG          AgentKind = "rag"
)

// Handoff is the result of one routing decision: which agent takes over and
// the detected intent that justified the transition.
type Handoff struct {
	From   AgentKind
	To     AgentKind
	Intent string
}
