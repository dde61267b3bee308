package chat

import "github.com/google/uuid"

// AgentStatus is the presence shown in the widget header.
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentAway    AgentStatus = "away"
	AgentOffline AgentStatus = "offline"
)

// SupportAgent is the agent presented once the widget connects. It is
// recreated on every initialization and never persisted.
type SupportAgent struct {
	ID           string
	Name         string
	Status       AgentStatus
	ResponseTime string
}

// DefaultAgent builds the placeholder agent shown after connecting.
func DefaultAgent(name, responseTime string) *SupportAgent {
	if name == "" {
		name = "Support Team"
	}
	return &SupportAgent{
		ID:           uuid.NewString(),
		Name:         name,
		Status:       AgentOnline,
		ResponseTime: responseTime,
	}
}
