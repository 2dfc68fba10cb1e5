package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSearchDebounce = time.Second

// Searcher debounces search-as-you-type queries and aborts the in-flight
// request when a newer query supersedes it, so stale results are never
// applied over fresh ones.
type Searcher struct {
	client   *Client
	provider string
	debounce time.Duration
	deliver  func(query string, page *SearchPage, err error)

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewSearcher delivers results through fn. Superseded requests are cancelled
// and never delivered.
func NewSearcher(client *Client, provider string, debounce time.Duration, fn func(query string, page *SearchPage, err error)) *Searcher {
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}
	return &Searcher{
		client:   client,
		provider: provider,
		debounce: debounce,
		deliver:  fn,
	}
}

// Query schedules a search for q, replacing any pending or in-flight one.
func (s *Searcher) Query(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(q)
	})
}

func (s *Searcher) run(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	page, err := s.client.Search(ctx, q, s.provider)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Msgf("[search] query %q failed", q)
	}
	s.deliver(q, page, err)
}

// Close cancels any pending or in-flight query.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
