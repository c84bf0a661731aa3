package domain

import "time"

// Link maps a short code to its target URL.
//
// Links are owned by the LinkStore. Resolver and Allocator never keep a Link
// between calls; every read goes back to the store.
type Link struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// Code is 6 to 8 characters of [A-Za-z0-9], unique and case-sensitive.
	Code string `json:"code"`

	// TargetURL is the absolute URL visitors are redirected to.
	TargetURL string `json:"target_url"`

	// TotalClicks starts at zero and only ever grows by one per resolution.
	TotalClicks int64 `json:"total_clicks"`

	// LastClickedAt is nil until the first resolution.
	// Once set it is never before CreatedAt.
	LastClickedAt *time.Time `json:"last_clicked_at"`

	// CreatedAt is set once by the store.
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can't mutate store-held state.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	if l.LastClickedAt != nil {
		t := *l.LastClickedAt
		c.LastClickedAt = &t
	}
	return &c
}
