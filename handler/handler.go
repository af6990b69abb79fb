// Package handler exposes the chat relay over API Gateway proxy events and
// net/http. Both adapters feed the same flow in serve.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"chat-relay/internal/cors"
	"chat-relay/internal/domain"
	"chat-relay/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	contentTypeJSON   = "application/json"

	msgMissingMessages  = "Missing 'messages' array"
	msgInvalidMessages  = "Invalid 'messages' array"
	msgMethodNotAllowed = "Method not allowed."
	msgServerError      = "Server error."
)

type Relayer interface {
	Relay(ctx context.Context, in usecase.RelayInput) (usecase.RelayOutput, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type Handler struct {
	relay   Relayer
	origins cors.AllowList
	logger  *slog.Logger
	newID   func() string
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithAllowList(l cors.AllowList) Option {
	return func(h *Handler) {
		h.origins = l
	}
}

func NewHandler(r Relayer, opts ...Option) (*Handler, error) {
	if r == nil {
		return nil, errors.New("handler: relayer must not be nil")
	}
	h := &Handler{
		relay:   r,
		origins: cors.DefaultAllowList,
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// request and response are the platform-neutral shapes the adapters convert
// to and from.
type request struct {
	method        string
	origin        string
	correlationID string
	body          []byte
}

type response struct {
	status  int
	headers map[string]string
	body    string
}

func (h *Handler) serve(ctx context.Context, req request) (resp response) {
	corrID := strings.TrimSpace(req.correlationID)
	if corrID == "" {
		corrID = h.newID()
	}
	headers := h.origins.Headers(req.origin)
	headers[correlationHeader] = corrID

	method := strings.ToUpper(req.method)
	log := h.logger.With("correlation_id", corrID, "method", method)

	defer func() {
		if rec := recover(); rec != nil {
			resp = h.failure(log, headers, usecase.NewError(usecase.ErrorInternal, usecase.ReasonPanic, fmt.Errorf("panic: %v", rec)))
		}
	}()

	switch method {
	case http.MethodOptions:
		return response{status: http.StatusNoContent, headers: headers}
	case http.MethodPost:
	default:
		headers["Allow"] = cors.AllowMethods
		return h.failure(log, headers, usecase.NewError(usecase.ErrorMethodNotAllowed, usecase.ReasonMethodNotAllowed, nil))
	}

	messages, err := decodeMessages(req.body)
	if err != nil {
		return h.failure(log, headers, err)
	}

	out, err := h.relay.Relay(ctx, usecase.RelayInput{Messages: messages})
	if err != nil {
		return h.failure(log, headers, err)
	}
	if out.Fallback {
		log.Warn("upstream returned no reply text, using fallback")
	}
	log.Info("chat relayed", "status", http.StatusOK, "turns", len(messages))
	return jsonResponse(http.StatusOK, headers, replyResponse{Reply: out.Reply})
}

// decodeMessages requires a JSON object whose messages field is an array.
func decodeMessages(body []byte) ([]domain.ChatMessage, error) {
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, usecase.NewError(usecase.ErrorInvalidRequest, usecase.ReasonMissingMessages, err)
	}
	raw := bytes.TrimSpace(req.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, usecase.NewError(usecase.ErrorInvalidRequest, usecase.ReasonMissingMessages, nil)
	}
	var messages []domain.ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, usecase.NewError(usecase.ErrorInvalidRequest, usecase.ReasonInvalidMessages, err)
	}
	return messages, nil
}

func (h *Handler) failure(log *slog.Logger, headers map[string]string, err error) response {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		ucErr = usecase.NewError(usecase.ErrorInternal, "unexpected", err)
	}
	status, msg := statusFor(ucErr)

	attrs := []any{"status", status, "code", string(ucErr.Code), "reason", ucErr.Reason}
	if ucErr.Err != nil {
		attrs = append(attrs, "err", ucErr.Err)
	}
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		attrs = append(attrs, "upstream_status", statusErr.HTTPStatusCode())
	}
	if status >= http.StatusInternalServerError {
		log.Error("chat relay failed", attrs...)
	} else {
		log.Info("chat request rejected", attrs...)
	}
	return jsonResponse(status, headers, errorResponse{Error: msg})
}

// statusFor maps an error to the status and the message the caller may see.
func statusFor(err *usecase.Error) (int, string) {
	switch err.Code {
	case usecase.ErrorInvalidRequest:
		if err.Reason == usecase.ReasonInvalidMessages {
			return http.StatusBadRequest, msgInvalidMessages
		}
		return http.StatusBadRequest, msgMissingMessages
	case usecase.ErrorMethodNotAllowed:
		return http.StatusMethodNotAllowed, msgMethodNotAllowed
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func jsonResponse(status int, headers map[string]string, v any) response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgServerError + `"}`)
	}
	headers["Content-Type"] = contentTypeJSON
	return response{status: status, headers: headers, body: string(body)}
}
