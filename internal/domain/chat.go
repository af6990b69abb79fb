package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the completion API accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations. A conversation is an ordered slice of them.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
