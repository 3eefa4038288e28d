package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ErrDuplicateSlug is returned (wrapped in *StorageFailure) when a record
// with the same slug already exists.
var ErrDuplicateSlug = errors.New("slug already exists")

// Record is one generated item. Records are written once and never updated.
// Zero values in the optional fields mean the value was not recorded.
type Record struct {
	ID        string
	Topic     string
	Slug      string
	URL       string
	Script    string
	AudioRef  string
	CreatedAt time.Time

	WordCount     int
	Coverage      string
	DurationClass string
	AudioBytes    int
}

func NewRecord(topic, slug, url, script string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Topic:     topic,
		Slug:      slug,
		URL:       url,
		Script:    script,
		CreatedAt: time.Now().UTC(),
	}
}

type Store interface {
	Exists(ctx context.Context, slug string) (bool, error)
	Insert(ctx context.Context, record *Record) error
	// ListRecent returns records newest first.
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	// Lookup returns nil and no error when slug is unknown.
	Lookup(ctx context.Context, slug string) (*Record, error)
	Close(ctx context.Context) error
}

type StorageFailure struct {
	Op   string
	Slug string
	Err  error
}

func (e *StorageFailure) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Slug, e.Err)
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// NormalizeLimit maps non-positive limits to the default and caps the rest.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
