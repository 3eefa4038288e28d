package app

import (
	"context"
	"errors"

	"topicast/internal/audio"
	"topicast/internal/content"
	"topicast/internal/script"
	"topicast/internal/storage"
	"topicast/internal/topics"
	"topicast/pkg/config"
)

type ScriptWriter interface {
	Write(ctx context.Context, topic string, class script.DurationClass) (*script.Script, error)
}

type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) audio.Outcome
}

type SlugMinter interface {
	Mint(ctx context.Context, topic string) string
}

type TopicSource interface {
	Pick(ctx context.Context, feedURL string) (string, error)
}

type Service struct {
	cfg    *config.Config
	writer ScriptWriter
	synth  AudioSynthesizer
	minter SlugMinter
	store  content.Store
	blobs  storage.BlobStore
	topics TopicSource
}

type ServiceOptions struct {
	Config      *config.Config
	Writer      ScriptWriter
	Synthesizer AudioSynthesizer
	Minter      SlugMinter
	Store       content.Store
	Blobs       storage.BlobStore
	Topics      TopicSource
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:    opts.Config,
		writer: opts.Writer,
		synth:  opts.Synthesizer,
		minter: opts.Minter,
		store:  opts.Store,
		blobs:  opts.Blobs,
		topics: opts.Topics,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Store() content.Store {
	return s.store
}

func (s *Service) Blobs() storage.BlobStore {
	return s.blobs
}

// Close releases the record and blob stores.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close(ctx))
	}
	if s.blobs != nil {
		errs = append(errs, s.blobs.Close())
	}
	return errors.Join(errs...)
}

var _ TopicSource = (*topics.FeedSource)(nil)
