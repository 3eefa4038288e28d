package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretSource interface {
	Secret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerSource struct {
	client  *secretmanager.Client
	project string
}

func newSecretManagerSource(ctx context.Context, project string) (*secretManagerSource, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return &secretManagerSource{client: client, project: project}, nil
}

func (s *secretManagerSource) Secret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *secretManagerSource) Close() error {
	return s.client.Close()
}

// resolveSecrets fills secrets that the environment left empty.
func resolveSecrets(ctx context.Context, cfg *Config, source secretSource) {
	targets := []struct {
		name  string
		value *string
	}{
		{"GROQ_API_KEY", &cfg.GroqAPIKey},
		{"DEEPSEEK_API_KEY", &cfg.DeepSeekAPIKey},
		{"ELEVENLABS_API_KEY", &cfg.ElevenLabsAPIKey},
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"MONGODB_URI", &cfg.MongoURI},
	}

	for _, target := range targets {
		if *target.value != "" {
			continue
		}
		value, err := source.Secret(ctx, target.name)
		if err != nil {
			slog.Debug("Secret not resolved", "name", target.name, "error", err)
			continue
		}
		*target.value = value
	}
}
