package domain

import (
	"context"
	"errors"
)

// Resolution is the outcome of resolving a code.
type Resolution struct {
	Found     bool
	TargetURL string

	// Counted is false when the link disappeared between the lookup and the
	// click update. The redirect still goes through.
	Counted bool
}

// Resolver turns a code into a target URL and records the visit.
type Resolver struct {
	store LinkStore
}

func NewResolver(store LinkStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up code and, if it exists, counts one click.
//
// The read and the increment are two store calls. A delete landing between
// them leaves the increment with zero affected rows; the already fetched
// target is still returned. Store failures are not retried: a retried
// increment could count the same visit twice.
func (r *Resolver) Resolve(ctx context.Context, code string) (Resolution, error) {
	if !ValidCode(code) {
		return Resolution{}, nil
	}

	link, err := r.store.FindByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, unavailable("find link", err)
	}

	n, err := r.store.IncrementClicksAndTouch(ctx, code)
	if err != nil {
		return Resolution{}, unavailable("record click", err)
	}

	return Resolution{
		Found:     true,
		TargetURL: link.TargetURL,
		Counted:   n > 0,
	}, nil
}
