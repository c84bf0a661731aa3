package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// Store keeps links in process memory.
// Every mutation happens under one write lock, which makes insert-if-absent
// and the click increment atomic.
type Store struct {
	mu     sync.RWMutex
	links  map[string]*domain.Link // code -> link
	nextID int64
	now    func() time.Time
}

var _ domain.LinkStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		links: make(map[string]*domain.Link),
		now:   time.Now,
	}
}

// WithClock swaps the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return link.Clone(), nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, code, targetURL string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[code]; ok {
		return nil, &domain.ConflictError{Code: code}
	}
	s.nextID++
	link := &domain.Link{
		ID:        s.nextID,
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: s.now().UTC(),
	}
	s.links[code] = link
	return link.Clone(), nil
}

func (s *Store) IncrementClicksAndTouch(ctx context.Context, code string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[code]
	if !ok {
		return 0, nil
	}
	now := s.now().UTC()
	if now.Before(link.CreatedAt) {
		now = link.CreatedAt
	}
	if link.LastClickedAt != nil && now.Before(*link.LastClickedAt) {
		now = *link.LastClickedAt
	}
	link.TotalClicks++
	link.LastClickedAt = &now
	return 1, nil
}

func (s *Store) DeleteByCode(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[code]; !ok {
		return false, nil
	}
	delete(s.links, code)
	return true, nil
}

func (s *Store) ListAll(ctx context.Context, search string) ([]domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(search)

	s.mu.RLock()
	out := make([]domain.Link, 0, len(s.links))
	for _, link := range s.links {
		if needle != "" &&
			!strings.Contains(strings.ToLower(link.Code), needle) &&
			!strings.Contains(strings.ToLower(link.TargetURL), needle) {
			continue
		}
		out = append(out, *link.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Count returns the number of stored links.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }
