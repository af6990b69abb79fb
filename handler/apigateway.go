package handler

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Handle is the Lambda entry point for API Gateway proxy integrations. It
// never returns an error; every failure is rendered as a response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			h.logger.Info("undecodable base64 body", "err", err)
			decoded = nil
		}
		body = decoded
	}

	resp := h.serve(ctx, request{
		method:        event.HTTPMethod,
		origin:        headerValue(event, "Origin"),
		correlationID: headerValue(event, correlationHeader),
		body:          body,
	})
	return events.APIGatewayProxyResponse{
		StatusCode: resp.status,
		Headers:    resp.headers,
		Body:       resp.body,
	}, nil
}

// headerValue looks a header up case-insensitively, falling back to the
// multi-value map.
func headerValue(event events.APIGatewayProxyRequest, name string) string {
	for k, v := range event.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range event.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}
