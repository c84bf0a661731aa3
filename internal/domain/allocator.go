package domain

import (
	"context"
	"errors"
	"fmt"
)

// MaxGenerateAttempts bounds the generate-and-insert loop.
const MaxGenerateAttempts = 10

// Allocator validates or generates codes and persists new links.
type Allocator struct {
	store       LinkStore
	generate    CodeGenerator
	maxAttempts int
	probe       bool
}

// AllocatorOption tunes an Allocator.
type AllocatorOption func(*Allocator)

// WithGenerator replaces the random code source.
func WithGenerator(g CodeGenerator) AllocatorOption {
	return func(a *Allocator) { a.generate = g }
}

// WithMaxAttempts overrides the generation budget. Values < 1 are ignored.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *Allocator) {
		if n >= 1 {
			a.maxAttempts = n
		}
	}
}

// WithProbe toggles the advisory FindByCode before each generated insert.
func WithProbe(enabled bool) AllocatorOption {
	return func(a *Allocator) { a.probe = enabled }
}

func NewAllocator(store LinkStore, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		store:       store,
		generate:    RandomCodes,
		maxAttempts: MaxGenerateAttempts,
		probe:       true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate creates a link for targetURL.
//
// An empty requestedCode means the caller did not pick one and a random code
// is generated. A requested code gets exactly one insert attempt.
func (a *Allocator) Allocate(ctx context.Context, targetURL, requestedCode string) (*Link, error) {
	if err := ValidateTargetURL(targetURL); err != nil {
		return nil, err
	}
	if requestedCode != "" {
		if !ValidCode(requestedCode) {
			return nil, ErrInvalidCodeFormat
		}
		return a.insertRequested(ctx, requestedCode, targetURL)
	}
	return a.insertGenerated(ctx, targetURL)
}

func (a *Allocator) insertRequested(ctx context.Context, code, targetURL string) (*Link, error) {
	link, err := a.store.InsertIfAbsent(ctx, code, targetURL)
	switch {
	case err == nil:
		return link, nil
	case IsConflict(err):
		return nil, fmt.Errorf("%w: %s", ErrCodeConflict, code)
	default:
		return nil, unavailable("insert link", err)
	}
}

func (a *Allocator) insertGenerated(ctx context.Context, targetURL string) (*Link, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code, err := a.generate()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		if a.probe {
			taken, err := a.exists(ctx, code)
			if err != nil {
				return nil, err
			}
			if taken {
				continue
			}
		}

		link, err := a.store.InsertIfAbsent(ctx, code, targetURL)
		if err == nil {
			return link, nil
		}
		if !IsConflict(err) {
			return nil, unavailable("insert link", err)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrAllocationExhausted, a.maxAttempts)
}

// exists is advisory only; InsertIfAbsent has the final word.
func (a *Allocator) exists(ctx context.Context, code string) (bool, error) {
	_, err := a.store.FindByCode(ctx, code)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, unavailable("probe code", err)
	}
}
