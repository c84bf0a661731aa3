package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
)

// Report counts what an Apply did.
type Report struct {
	Created   int
	Unchanged int
	// Drifted codes exist with a different target. They are reported, never overwritten.
	Drifted []string
}

func (r Report) Total() int { return r.Created + r.Unchanged + len(r.Drifted) }

// Seeder makes the declared links exist in a store.
type Seeder struct {
	allocator *domain.Allocator
	links     domain.LinkStore
	log       logger.Logger
}

func NewSeeder(allocator *domain.Allocator, links domain.LinkStore, log logger.Logger) *Seeder {
	return &Seeder{allocator: allocator, links: links, log: log}
}

// Apply creates missing links. It stops at the first store failure;
// entries applied before it stay applied.
func (s *Seeder) Apply(ctx context.Context, f *File) (Report, error) {
	var rep Report
	for _, e := range f.Links {
		_, err := s.allocator.Allocate(ctx, e.TargetURL, e.Code)
		switch {
		case err == nil:
			rep.Created++
			s.log.Debug("seed link created", logger.String("code", e.Code))
			continue
		case !errors.Is(err, domain.ErrCodeConflict):
			return rep, fmt.Errorf("seed %s: %w", e.Code, err)
		}

		existing, err := s.links.FindByCode(ctx, e.Code)
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted right after the conflict; next run recreates it.
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("seed %s: %w", e.Code, err)
		}
		if existing.TargetURL == e.TargetURL {
			rep.Unchanged++
			continue
		}
		rep.Drifted = append(rep.Drifted, e.Code)
		s.log.Warn("seed link drifted, keeping stored target",
			logger.String("code", e.Code),
			logger.String("stored", existing.TargetURL),
			logger.String("declared", e.TargetURL))
	}
	return rep, nil
}

// ApplyFile loads path and applies it.
func (s *Seeder) ApplyFile(ctx context.Context, path string) (Report, error) {
	f, err := NewLoader(path).Load()
	if err != nil {
		return Report{}, err
	}
	return s.Apply(ctx, f)
}
