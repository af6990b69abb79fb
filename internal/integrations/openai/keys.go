package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// KeySource yields the bearer credential for a single upstream call.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// KeyError marks a failure to obtain the API key, as opposed to a failure
// talking to the API itself.
type KeyError struct {
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("openai: resolve api key: %v", e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// EnvKey reads the key from the named environment variable each time it is
// asked, so a rotated secret is picked up without a restart.
type EnvKey struct {
	Name     string
	lookupFn func(string) (string, bool)
}

func NewEnvKey(name string) EnvKey {
	return EnvKey{Name: name, lookupFn: os.LookupEnv}
}

func (k EnvKey) APIKey(_ context.Context) (string, error) {
	name := strings.TrimSpace(k.Name)
	if name == "" {
		return "", errors.New("environment variable name is empty")
	}
	lookup := k.lookupFn
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("%s is not set", name)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is empty", name)
	}
	return v, nil
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// tokenPayload is the JSON shape accepted for a key stored in SSM.
type tokenPayload struct {
	Token string `json:"token"`
}

// ParamStoreKey fetches the key from Parameter Store on every call.
type ParamStoreKey struct {
	getter Getter
	name   string
}

func NewParamStoreKey(getter Getter, name string) (*ParamStoreKey, error) {
	if getter == nil {
		return nil, errors.New("openai: paramstore getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("openai: token parameter name must not be empty")
	}
	return &ParamStoreKey{getter: getter, name: name}, nil
}

func (k *ParamStoreKey) APIKey(ctx context.Context) (string, error) {
	return fetchAPIKeyFromParamStore(ctx, k.getter, k.name)
}

// fetchAPIKeyFromParamStore accepts either {"token":"..."} or the bare key.
func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch token from paramstore: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("API token is empty")
		}
		return raw, nil
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("unmarshal paramstore token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
