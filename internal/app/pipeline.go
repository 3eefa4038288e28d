package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"topicast/internal/audio"
	"topicast/internal/content"
	"topicast/internal/script"
	"topicast/internal/storage"
)

const (
	defaultLanguage = "en"
	maxReMints      = 2
)

type State string

const (
	StateDrafting     State = "drafting"
	StateSynthesizing State = "synthesizing"
	StateMinting      State = "minting"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

type Request struct {
	Topic    string
	Duration script.DurationClass
	Language string
}

// Result describes a finished run. Audio is nil when no tier succeeded;
// Persisted is false when the record could not be written.
type Result struct {
	Topic            string
	URL              string
	Slug             string
	Coverage         audio.Coverage
	WordCount        int
	EstimatedSeconds int
	Script           *script.Script
	Audio            *audio.Asset
	AudioRef         string
	Persisted        bool
	SynthesisErr     error
	AudioStoreErr    error
	StorageErr       error
	Message          string
}

type Pipeline struct {
	service *Service
}

type generationContext struct {
	ctx      context.Context
	pipeline *Pipeline
	request  Request
	state    State
	result   *Result
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// Generate drafts, voices, names and records one episode. Only a script
// failure is returned as an error; every later stage degrades the result
// instead.
func (pipeline *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	generation := pipeline.newGenerationContext(ctx, req)

	s, err := generation.draft()
	if err != nil {
		generation.transition(StateFailed)
		return nil, err
	}

	generation.synthesize(s)
	generation.mint()
	generation.persist()
	generation.finish()

	return generation.result, nil
}

func (pipeline *Pipeline) ListRecent(ctx context.Context, limit int) ([]content.Record, error) {
	if cfg := pipeline.service.Config(); limit <= 0 && cfg != nil {
		limit = cfg.Content.ListLimit
	}
	return pipeline.service.Store().ListRecent(ctx, limit)
}

func (pipeline *Pipeline) Lookup(ctx context.Context, slug string) (*content.Record, error) {
	return pipeline.service.Store().Lookup(ctx, slug)
}

// FetchAudio reads the stored audio for a record.
func (pipeline *Pipeline) FetchAudio(ctx context.Context, record *content.Record) ([]byte, error) {
	if record.AudioRef == "" {
		return nil, fmt.Errorf("episode %q has no stored audio", record.Slug)
	}
	blobs := pipeline.service.Blobs()
	if blobs == nil {
		return nil, fmt.Errorf("no blob store configured")
	}
	return blobs.Get(ctx, record.AudioRef)
}

// ListAudio returns the keys of stored audio objects under prefix.
func (pipeline *Pipeline) ListAudio(ctx context.Context, prefix string) ([]string, error) {
	blobs := pipeline.service.Blobs()
	if blobs == nil {
		return nil, fmt.Errorf("no blob store configured")
	}
	return blobs.List(ctx, prefix)
}

// TopicFromFeed picks a topic from an RSS or Atom feed.
func (pipeline *Pipeline) TopicFromFeed(ctx context.Context, feedURL string) (string, error) {
	source := pipeline.service.topics
	if source == nil {
		return "", fmt.Errorf("no topic source configured")
	}
	return source.Pick(ctx, feedURL)
}

func (pipeline *Pipeline) newGenerationContext(ctx context.Context, req Request) *generationContext {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Duration = pipeline.normalizeDuration(req.Duration)
	if req.Language == "" {
		req.Language = pipeline.defaultLanguage()
	}

	return &generationContext{
		ctx:      ctx,
		pipeline: pipeline,
		request:  req,
		result:   &Result{Topic: req.Topic, Coverage: audio.None},
	}
}

func (pipeline *Pipeline) normalizeDuration(d script.DurationClass) script.DurationClass {
	if d == "" {
		return pipeline.defaultDuration()
	}
	class, err := script.ParseDurationClass(string(d))
	if err != nil {
		fallback := pipeline.defaultDuration()
		slog.Warn("Unknown duration class, using default", "value", d, "duration", fallback)
		return fallback
	}
	return class
}

func (pipeline *Pipeline) defaultDuration() script.DurationClass {
	cfg := pipeline.service.Config()
	if cfg == nil {
		return script.Medium
	}
	class, err := script.ParseDurationClass(cfg.Content.DefaultDuration)
	if err != nil {
		slog.Warn("Invalid default duration, using medium", "value", cfg.Content.DefaultDuration)
		return script.Medium
	}
	return class
}

func (pipeline *Pipeline) defaultLanguage() string {
	cfg := pipeline.service.Config()
	if cfg == nil || cfg.Speech.Language == "" {
		return defaultLanguage
	}
	return cfg.Speech.Language
}

func (generation *generationContext) transition(next State) {
	slog.Debug("Pipeline state", "topic", generation.request.Topic, "from", generation.state, "to", next)
	generation.state = next
}

func (generation *generationContext) draft() (*script.Script, error) {
	generation.transition(StateDrafting)
	slog.Info("Drafting script...", "topic", generation.request.Topic, "duration", generation.request.Duration)

	s, err := generation.pipeline.service.writer.Write(generation.ctx, generation.request.Topic, generation.request.Duration)
	if err != nil {
		return nil, err
	}

	generation.result.Script = s
	generation.result.WordCount = s.WordCount
	generation.result.EstimatedSeconds = script.EstimateSeconds(s.WordCount)
	return s, nil
}

func (generation *generationContext) synthesize(s *script.Script) {
	generation.transition(StateSynthesizing)
	slog.Info("Synthesizing audio...", "chars", len(s.Cleaned))

	outcome := generation.pipeline.service.synth.Synthesize(generation.ctx, s.Cleaned, generation.request.Language)
	generation.result.Audio = outcome.Asset
	generation.result.Coverage = outcome.Coverage
	generation.result.SynthesisErr = outcome.Err
	if outcome.Err != nil {
		slog.Warn("Continuing without audio", "error", outcome.Err)
	}
}

func (generation *generationContext) mint() {
	generation.transition(StateMinting)
	generation.result.Slug = generation.pipeline.service.minter.Mint(generation.ctx, generation.request.Topic)
	slog.Info("Slug minted", "slug", generation.result.Slug)
}

// persist stores the audio and inserts the record. A slug taken between
// the existence check and the insert is re-minted a bounded number of times.
func (generation *generationContext) persist() {
	generation.transition(StatePersisting)

	for attempt := 0; ; attempt++ {
		generation.storeAudio()

		err := generation.pipeline.service.store.Insert(generation.ctx, generation.record())
		if err == nil {
			generation.result.Persisted = true
			generation.result.StorageErr = nil
			return
		}

		generation.result.StorageErr = err
		if !errors.Is(err, content.ErrDuplicateSlug) || attempt >= maxReMints {
			slog.Error("Failed to save episode", "slug", generation.result.Slug, "error", err)
			return
		}

		previous := generation.result.Slug
		generation.result.Slug = generation.pipeline.service.minter.Mint(generation.ctx, generation.request.Topic)
		slog.Warn("Slug taken at insert, re-minted", "previous", previous, "slug", generation.result.Slug)
	}
}

func (generation *generationContext) storeAudio() {
	asset := generation.result.Audio
	blobs := generation.pipeline.service.blobs
	if asset == nil || blobs == nil {
		return
	}

	prefix := ""
	if cfg := generation.pipeline.service.Config(); cfg != nil {
		prefix = cfg.Blob.Prefix
	}
	key := storage.AudioKey(prefix, generation.result.Slug)

	ref, err := blobs.Put(generation.ctx, key, asset.Payload, asset.Encoding)
	if err != nil {
		slog.Warn("Failed to store audio", "key", key, "error", err)
		generation.result.AudioRef = ""
		generation.result.AudioStoreErr = err
		return
	}
	generation.result.AudioRef = ref
	generation.result.AudioStoreErr = nil
}

func (generation *generationContext) record() *content.Record {
	result := generation.result
	r := content.NewRecord(result.Topic, result.Slug, generation.pipeline.episodeURL(result.Slug), result.Script.Text)
	r.AudioRef = result.AudioRef
	r.WordCount = result.WordCount
	r.Coverage = string(result.Coverage)
	r.DurationClass = string(generation.request.Duration)
	if result.Audio != nil && result.AudioRef != "" {
		r.AudioBytes = len(result.Audio.Payload)
	}
	return r
}

func (generation *generationContext) finish() {
	generation.result.URL = generation.pipeline.episodeURL(generation.result.Slug)
	generation.result.Message = composeMessage(generation.result)
	generation.transition(StateDone)
	slog.Info("Episode ready", "url", generation.result.URL, "coverage", generation.result.Coverage, "persisted", generation.result.Persisted)
}

func (pipeline *Pipeline) episodeURL(slug string) string {
	base := ""
	if cfg := pipeline.service.Config(); cfg != nil {
		base = strings.TrimRight(cfg.Site.BaseURL, "/")
	}
	return base + "/" + slug
}
