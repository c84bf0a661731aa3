package domain

import "context"

// LinkStore is the persistence boundary shared by Resolver and Allocator.
//
// Every method is a potential suspension point. Implementations must make
// InsertIfAbsent and IncrementClicksAndTouch atomic on their own; callers never
// hold a lock across them.
type LinkStore interface {
	// FindByCode returns ErrNotFound when no link has this exact code.
	FindByCode(ctx context.Context, code string) (*Link, error)

	// InsertIfAbsent creates a link with zero clicks, or returns a
	// *ConflictError if the code exists. Two concurrent calls with the same
	// code never both succeed.
	InsertIfAbsent(ctx context.Context, code, targetURL string) (*Link, error)

	// IncrementClicksAndTouch adds one to total_clicks and sets
	// last_clicked_at to now, as a single relative update. It returns the
	// number of rows affected (0 when the code does not exist).
	IncrementClicksAndTouch(ctx context.Context, code string) (int64, error)

	// DeleteByCode reports whether a link was removed.
	DeleteByCode(ctx context.Context, code string) (bool, error)

	// ListAll returns links whose code or target contains search
	// (case-insensitive; empty search matches all), newest first.
	ListAll(ctx context.Context, search string) ([]Link, error)
}
