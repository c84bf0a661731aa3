package domain_test

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// stubStore lets a test script each store call and counts them.
type stubStore struct {
	mu sync.Mutex

	find      func(code string) (*domain.Link, error)
	insert    func(code, target string) (*domain.Link, error)
	increment func(code string) (int64, error)

	findCalls      int
	insertCalls    int
	incrementCalls int
}

var _ domain.LinkStore = (*stubStore)(nil)

func (s *stubStore) FindByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.Lock()
	s.findCalls++
	s.mu.Unlock()
	if s.find == nil {
		return nil, domain.ErrNotFound
	}
	return s.find(code)
}

func (s *stubStore) InsertIfAbsent(_ context.Context, code, target string) (*domain.Link, error) {
	s.mu.Lock()
	s.insertCalls++
	s.mu.Unlock()
	if s.insert == nil {
		return &domain.Link{ID: 1, Code: code, TargetURL: target}, nil
	}
	return s.insert(code, target)
}

func (s *stubStore) IncrementClicksAndTouch(_ context.Context, code string) (int64, error) {
	s.mu.Lock()
	s.incrementCalls++
	s.mu.Unlock()
	if s.increment == nil {
		return 1, nil
	}
	return s.increment(code)
}

func (s *stubStore) DeleteByCode(context.Context, string) (bool, error) { return false, nil }

func (s *stubStore) ListAll(context.Context, string) ([]domain.Link, error) { return nil, nil }

func (s *stubStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls + s.insertCalls + s.incrementCalls
}

func alwaysConflict(code, _ string) (*domain.Link, error) {
	return nil, &domain.ConflictError{Code: code}
}

// sequence returns a generator that yields codes in order, then repeats the last.
func sequence(codes ...string) domain.CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}
