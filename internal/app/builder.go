package app

import (
	"context"
	"fmt"
	"log/slog"

	"topicast/internal/audio"
	"topicast/internal/content"
	"topicast/internal/content/mongo"
	"topicast/internal/content/postgres"
	"topicast/internal/llm"
	"topicast/internal/llm/deepseek"
	"topicast/internal/llm/groq"
	"topicast/internal/script"
	"topicast/internal/slug"
	"topicast/internal/speech"
	"topicast/internal/speech/elevenlabs"
	"topicast/internal/storage"
	"topicast/internal/topics"
	"topicast/pkg/config"
	"topicast/pkg/prompts"
)

// BuildService wires the pipeline dependencies selected by cfg.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	generator, err := NewTextGenerator(cfg)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	return NewService(ServiceOptions{
		Config:      cfg,
		Writer:      script.NewWriter(generator, p),
		Synthesizer: audio.NewSynthesizer(NewSpeechProvider(cfg)),
		Minter:      slug.NewMinter(generator, p, store),
		Store:       store,
		Blobs:       blobs,
		Topics:      topics.NewFeedSource(),
	}), nil
}

func NewTextGenerator(cfg *config.Config) (llm.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for the groq provider")
		}
		client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "deepseek":
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
		return deepseek.NewClient(cfg.DeepSeekAPIKey, deepseek.Options{
			Model:   cfg.DeepSeek.Model,
			BaseURL: cfg.DeepSeek.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// NewSpeechProvider returns ElevenLabs when enabled and keyed, otherwise
// the silent stub.
func NewSpeechProvider(cfg *config.Config) speech.Provider {
	keys := elevenlabs.SplitKeys(cfg.ElevenLabsAPIKey)
	if cfg.ElevenLabs.Enabled && len(keys) > 0 {
		return elevenlabs.NewClient(elevenlabs.Config{
			APIKeys:    keys,
			VoiceID:    cfg.ElevenLabs.VoiceID,
			Model:      cfg.ElevenLabs.Model,
			Stability:  cfg.ElevenLabs.Stability,
			Similarity: cfg.ElevenLabs.Similarity,
		})
	}

	if cfg.ElevenLabs.Enabled {
		slog.Warn("ElevenLabs enabled but ELEVENLABS_API_KEY is empty, using silent audio")
	}
	return speech.NewStubProvider(speech.DefaultWordsPerMinute)
}

func OpenStore(ctx context.Context, cfg *config.Config) (content.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return content.NewMemoryStore(), nil
	case "postgres":
		store, err := postgres.Open(ctx, postgres.Config{
			DSN:          cfg.DatabaseURL,
			MaxOpenConns: cfg.Store.MaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mongo":
		store, err := mongo.Open(ctx, mongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func OpenBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Blob.Driver {
	case "local":
		return storage.NewLocalStorage(cfg.Blob.Dir), nil
	case "gcs":
		blobs, err := storage.NewGCSStorage(ctx, cfg.Blob.Bucket, cfg.Blob.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return blobs, nil
	case "s3":
		blobs, err := storage.NewS3Storage(cfg.Blob.Bucket, cfg.Blob.Region)
		if err != nil {
			return nil, err
		}
		return blobs, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}
