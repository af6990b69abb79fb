// Package app assembles the relay from configuration. Both entrypoints use it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-relay/handler"
	"chat-relay/internal/config"
	"chat-relay/internal/integrations/openai"
	"chat-relay/internal/integrations/paramstore"
	"chat-relay/internal/usecase"
)

// NewLogger returns a JSON slog logger at the configured level.
func NewLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// NewHandler wires key source, OpenAI client, relay service and handler.
func NewHandler(ctx context.Context, cfg config.Config, logger *slog.Logger) (*handler.Handler, error) {
	keys, err := newKeySource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []openai.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	openaiClient, err := openai.NewClient(keys, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: create OpenAI client: %w", err)
	}

	relay, err := usecase.NewRelayService(openaiClient)
	if err != nil {
		return nil, fmt.Errorf("app: create relay service: %w", err)
	}

	h, err := handler.NewHandler(relay, handler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	return h, nil
}

func newKeySource(ctx context.Context, cfg config.Config) (openai.KeySource, error) {
	if cfg.APIKeyParam == "" {
		return openai.NewEnvKey(cfg.APIKeyEnv), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}
	keys, err := openai.NewParamStoreKey(ssmClient, cfg.APIKeyParam)
	if err != nil {
		return nil, fmt.Errorf("app: create SSM key source: %w", err)
	}
	return keys, nil
}
