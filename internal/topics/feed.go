package topics

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "topicast/1.0"
)

// FeedSource draws topics from the item titles of an RSS, Atom or JSON feed.
type FeedSource struct {
	parser *gofeed.Parser
	intn   func(n int) int
}

type option func(*FeedSource)

func withHTTPClient(client *http.Client) option {
	return func(s *FeedSource) {
		s.parser.Client = client
	}
}

func withRandom(intn func(n int) int) option {
	return func(s *FeedSource) {
		s.intn = intn
	}
}

func NewFeedSource() *FeedSource {
	return newFeedSource()
}

func newFeedSource(opts ...option) *FeedSource {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: defaultTimeout}

	s := &FeedSource{parser: parser, intn: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Titles returns the distinct, non-empty item titles in feed order.
func (s *FeedSource) Titles(ctx context.Context, feedURL string) ([]string, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	seen := make(map[string]bool, len(feed.Items))
	titles := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.Join(strings.Fields(item.Title), " ")
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles, nil
}

// Pick returns one random item title from the feed.
func (s *FeedSource) Pick(ctx context.Context, feedURL string) (string, error) {
	titles, err := s.Titles(ctx, feedURL)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("feed %s has no titled items", feedURL)
	}
	return titles[s.intn(len(titles))], nil
}
