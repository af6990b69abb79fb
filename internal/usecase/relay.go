package usecase

import (
	"context"
	"errors"
	"strings"

	"chat-relay/internal/domain"
	"chat-relay/internal/integrations/openai"
)

// Model is the completion model every request is sent to.
const Model = "gpt-4.1-mini"

// LLMClient performs a single completion call.
type LLMClient interface {
	Respond(ctx context.Context, model string, input []domain.ChatMessage) (*openai.Response, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// RelayService forwards one conversation to the completion API and returns the
// reply text. It holds no per-request state.
type RelayService struct {
	llm   LLMClient
	model string
}

type RelayInput struct {
	Messages []domain.ChatMessage
}

type RelayOutput struct {
	Reply string
	// Fallback is set when the upstream answered without usable text.
	Fallback bool
}

func NewRelayService(llm LLMClient) (*RelayService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	return &RelayService{llm: llm, model: Model}, nil
}

func (s *RelayService) Relay(ctx context.Context, in RelayInput) (RelayOutput, error) {
	for _, m := range in.Messages {
		if !m.Role.Valid() {
			return RelayOutput{}, NewError(ErrorInvalidRequest, ReasonInvalidMessages, nil)
		}
	}

	resp, err := s.llm.Respond(ctx, s.model, buildPromptMessages(in.Messages))
	if err != nil {
		var keyErr *openai.KeyError
		if errors.As(err, &keyErr) {
			return RelayOutput{}, NewError(ErrorUpstream, ReasonAPIKey, err)
		}
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return RelayOutput{}, NewError(ErrorUpstream, ReasonOpenAIRateLimited, err)
		}
		return RelayOutput{}, NewError(ErrorUpstream, ReasonOpenAI, err)
	}

	reply, ok := extractReply(resp)
	return RelayOutput{Reply: reply, Fallback: !ok}, nil
}

// extractReply prefers the aggregated text, then the first content item of the
// first output item. ok is false when the fallback apology was used.
func extractReply(resp *openai.Response) (string, bool) {
	if resp == nil {
		return fallbackReply, false
	}
	if text := strings.TrimSpace(resp.OutputText); text != "" {
		return text, true
	}
	if len(resp.Output) > 0 && len(resp.Output[0].Content) > 0 {
		if text := strings.TrimSpace(resp.Output[0].Content[0].Text); text != "" {
			return text, true
		}
	}
	return fallbackReply, false
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
