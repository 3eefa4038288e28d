package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultBaseURL         = "http://localhost:8080/listen"
	defaultLLMProvider     = "groq"
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultDeepSeekModel   = "deepseek-chat"
	defaultElevenLabsVoice = "JBFqnCBsd6RMkjVDRZzb"
	defaultElevenLabsModel = "eleven_multilingual_v2"
	defaultStability       = 0.5
	defaultSimilarity      = 0.75
	defaultLanguage        = "en"
	defaultDurationClass   = "medium"
	defaultStoreDriver     = "memory"
	defaultMongoDatabase   = "topicast"
	defaultMongoCollection = "episodes"
	defaultBlobDriver      = "local"
	defaultBlobDir         = "./output"
	defaultBlobPrefix      = "audio"
	defaultBatchWorkers    = 4
	defaultListLimit       = 10
)

type Config struct {
	GroqAPIKey       string
	DeepSeekAPIKey   string
	ElevenLabsAPIKey string
	DatabaseURL      string
	MongoURI         string
	GCPProject       string

	Site       SiteConfig       `yaml:"site"`
	LLM        LLMConfig        `yaml:"llm"`
	Groq       GroqConfig       `yaml:"groq"`
	DeepSeek   DeepSeekConfig   `yaml:"deepseek"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Speech     SpeechConfig     `yaml:"speech"`
	Content    ContentConfig    `yaml:"content"`
	Store      StoreConfig      `yaml:"store"`
	Blob       BlobConfig       `yaml:"blob"`
	Batch      BatchConfig      `yaml:"batch"`
}

type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "groq" or "deepseek"
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type DeepSeekConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ElevenLabsConfig struct {
	Enabled    bool    `yaml:"enabled"`
	VoiceID    string  `yaml:"voice_id"`
	Model      string  `yaml:"model"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
}

type SpeechConfig struct {
	Language string `yaml:"language"`
}

type ContentConfig struct {
	DefaultDuration string `yaml:"default_duration"`
	ListLimit       int    `yaml:"list_limit"`
}

type StoreConfig struct {
	Driver          string `yaml:"driver"` // "postgres", "mongo" or "memory"
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type BlobConfig struct {
	Driver          string `yaml:"driver"` // "local", "gcs" or "s3"
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	CredentialsFile string `yaml:"credentials_file"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		DeepSeekAPIKey:   os.Getenv("DEEPSEEK_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		GCPProject:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.GCPProject != "" {
		source, err := newSecretManagerSource(ctx, cfg.GCPProject)
		if err != nil {
			slog.Warn("Secret Manager unavailable, using environment only", "error", err)
			return cfg, nil
		}
		defer func() { _ = source.Close() }()
		resolveSecrets(ctx, cfg, source)
	}

	return cfg, nil
}

func loadYAMLConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applySiteDefaults(cfg)
	applyLLMDefaults(cfg)
	applyElevenLabsDefaults(cfg)
	applySpeechDefaults(cfg)
	applyContentDefaults(cfg)
	applyStoreDefaults(cfg)
	applyBlobDefaults(cfg)
	applyBatchDefaults(cfg)
}

func applySiteDefaults(cfg *Config) {
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = defaultBaseURL
	}
	cfg.Site.BaseURL = strings.TrimRight(cfg.Site.BaseURL, "/")
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultLLMProvider
	}
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = defaultDeepSeekModel
	}
}

func applyElevenLabsDefaults(cfg *Config) {
	if cfg.ElevenLabs.VoiceID == "" {
		cfg.ElevenLabs.VoiceID = defaultElevenLabsVoice
	}
	if cfg.ElevenLabs.Model == "" {
		cfg.ElevenLabs.Model = defaultElevenLabsModel
	}
	if cfg.ElevenLabs.Stability == 0 {
		cfg.ElevenLabs.Stability = defaultStability
	}
	if cfg.ElevenLabs.Similarity == 0 {
		cfg.ElevenLabs.Similarity = defaultSimilarity
	}
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = defaultLanguage
	}
}

func applyContentDefaults(cfg *Config) {
	if cfg.Content.DefaultDuration == "" {
		cfg.Content.DefaultDuration = defaultDurationClass
	}
	if cfg.Content.ListLimit == 0 {
		cfg.Content.ListLimit = defaultListLimit
	}
}

func applyStoreDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaultStoreDriver
	}
	if cfg.Store.MongoDatabase == "" {
		cfg.Store.MongoDatabase = defaultMongoDatabase
	}
	if cfg.Store.MongoCollection == "" {
		cfg.Store.MongoCollection = defaultMongoCollection
	}
}

func applyBlobDefaults(cfg *Config) {
	if cfg.Blob.Driver == "" {
		cfg.Blob.Driver = defaultBlobDriver
	}
	if cfg.Blob.Dir == "" {
		cfg.Blob.Dir = defaultBlobDir
	}
	if cfg.Blob.Prefix == "" {
		cfg.Blob.Prefix = defaultBlobPrefix
	}
}

func applyBatchDefaults(cfg *Config) {
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = defaultBatchWorkers
	}
}
