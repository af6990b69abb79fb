package usecase

import (
	"strings"

	"chat-relay/internal/domain"
)

const fallbackReply = "Sorry, I couldn't generate a reply."

func personaPrompt() string {
	return strings.Join([]string{
		"You are a helpful, upbeat local assistant for JAX 420 in Jacksonville, FL.",
		"Keep answers concise, family-friendly, and avoid banned words or price/sales language.",
		"If unsure, direct users to JAX420.com.",
	}, " ")
}

// buildPromptMessages puts the persona turn ahead of the caller's turns.
// The caller's slice is not modified.
func buildPromptMessages(turns []domain.ChatMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(turns)+1)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: personaPrompt(),
	})
	return append(messages, turns...)
}
