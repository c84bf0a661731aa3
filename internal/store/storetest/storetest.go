// Package storetest holds the behaviour every domain.LinkStore backend must
// show. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) domain.LinkStore

// Run executes the shared suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s domain.LinkStore)
	}{
		{"insert then find", testInsertThenFind},
		{"insert conflict", testInsertConflict},
		{"find missing", testFindMissing},
		{"codes are case sensitive", testCaseSensitive},
		{"increment existing", testIncrementExisting},
		{"increment missing", testIncrementMissing},
		{"concurrent increments", testConcurrentIncrements},
		{"concurrent inserts same code", testConcurrentInserts},
		{"delete", testDelete},
		{"list order", testListOrder},
		{"list search", testListSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustInsert(t *testing.T, s domain.LinkStore, code, target string) *domain.Link {
	t.Helper()
	link, err := s.InsertIfAbsent(context.Background(), code, target)
	if err != nil {
		t.Fatalf("InsertIfAbsent(%q) error = %v", code, err)
	}
	return link
}

func testInsertThenFind(t *testing.T, s domain.LinkStore) {
	ctx := context.Background()
	created := mustInsert(t, s, "abc123", "https://example.com/x")

	if created.ID <= 0 {
		t.Errorf("ID = %d, want > 0", created.ID)
	}
	if created.TotalClicks != 0 {
		t.Errorf("TotalClicks = %d, want 0", created.TotalClicks)
	}
	if created.LastClickedAt != nil {
		t.Errorf("LastClickedAt = %v, want nil", created.LastClickedAt)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := s.FindByCode(ctx, "abc123")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if got.ID != created.ID || got.TargetURL != "https://example.com/x" {
		t.Errorf("FindByCode() = %+v, want %+v", got, created)
	}
}

func testInsertConflict(t *testing.T, s domain.LinkStore) {
	mustInsert(t, s, "dup001", "https://example.com/a")

	_, err := s.InsertIfAbsent(context.Background(), "dup001", "https://example.com/b")
	if !domain.IsConflict(err) {
		t.Fatalf("second InsertIfAbsent() error = %v, want *ConflictError", err)
	}
	if !errors.Is(err, domain.ErrCodeConflict) {
		t.Errorf("errors.Is(err, ErrCodeConflict) = false for %v", err)
	}

	got, err := s.FindByCode(context.Background(), "dup001")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if got.TargetURL != "https://example.com/a" {
		t.Errorf("conflicting insert overwrote target: %q", got.TargetURL)
	}
}

func testFindMissing(t *testing.T, s domain.LinkStore) {
	_, err := s.FindByCode(context.Background(), "nope99")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindByCode() error = %v, want ErrNotFound", err)
	}
}

func testCaseSensitive(t *testing.T, s domain.LinkStore) {
	mustInsert(t, s, "AbCdEf", "https://example.com/upper")
	mustInsert(t, s, "abcdef", "https://example.com/lower")

	got, err := s.FindByCode(context.Background(), "AbCdEf")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if got.TargetURL != "https://example.com/upper" {
		t.Errorf("FindByCode(AbCdEf) = %q", got.TargetURL)
	}
	if _, err := s.FindByCode(context.Background(), "ABCDEF"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindByCode(ABCDEF) error = %v, want ErrNotFound", err)
	}
}

func testIncrementExisting(t *testing.T, s domain.LinkStore) {
	ctx := context.Background()
	created := mustInsert(t, s, "clk001", "https://example.com")

	n, err := s.IncrementClicksAndTouch(ctx, "clk001")
	if err != nil {
		t.Fatalf("IncrementClicksAndTouch() error = %v", err)
	}
	if n != 1 {
		t.Errorf("affected = %d, want 1", n)
	}

	first, err := s.FindByCode(ctx, "clk001")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if first.TotalClicks != 1 {
		t.Errorf("TotalClicks = %d, want 1", first.TotalClicks)
	}
	if first.LastClickedAt == nil {
		t.Fatal("LastClickedAt should be set after a click")
	}
	if first.LastClickedAt.Before(created.CreatedAt) {
		t.Errorf("LastClickedAt %v before CreatedAt %v", first.LastClickedAt, created.CreatedAt)
	}

	if _, err := s.IncrementClicksAndTouch(ctx, "clk001"); err != nil {
		t.Fatalf("IncrementClicksAndTouch() error = %v", err)
	}
	second, err := s.FindByCode(ctx, "clk001")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if second.TotalClicks != 2 {
		t.Errorf("TotalClicks = %d, want 2", second.TotalClicks)
	}
	if second.LastClickedAt.Before(*first.LastClickedAt) {
		t.Errorf("LastClickedAt went backwards: %v -> %v", first.LastClickedAt, second.LastClickedAt)
	}
}

func testIncrementMissing(t *testing.T, s domain.LinkStore) {
	n, err := s.IncrementClicksAndTouch(context.Background(), "ghost1")
	if err != nil {
		t.Fatalf("IncrementClicksAndTouch() error = %v", err)
	}
	if n != 0 {
		t.Errorf("affected = %d, want 0", n)
	}
}

func testConcurrentIncrements(t *testing.T, s domain.LinkStore) {
	const clicks = 50
	mustInsert(t, s, "hot001", "https://example.com")

	var wg sync.WaitGroup
	errs := make(chan error, clicks)
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementClicksAndTouch(context.Background(), "hot001"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("IncrementClicksAndTouch() error = %v", err)
	}

	got, err := s.FindByCode(context.Background(), "hot001")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if got.TotalClicks != clicks {
		t.Errorf("TotalClicks = %d, want %d", got.TotalClicks, clicks)
	}
}

func testConcurrentInserts(t *testing.T, s domain.LinkStore) {
	const racers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.InsertIfAbsent(context.Background(), "race01", fmt.Sprintf("https://example.com/%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case domain.IsConflict(err):
				conflicts++
			default:
				t.Errorf("InsertIfAbsent() unexpected error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != racers-1 {
		t.Errorf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, racers-1)
	}
}

func testDelete(t *testing.T, s domain.LinkStore) {
	ctx := context.Background()
	mustInsert(t, s, "del001", "https://example.com")

	deleted, err := s.DeleteByCode(ctx, "del001")
	if err != nil {
		t.Fatalf("DeleteByCode() error = %v", err)
	}
	if !deleted {
		t.Error("DeleteByCode() = false, want true")
	}
	if _, err := s.FindByCode(ctx, "del001"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindByCode() after delete error = %v, want ErrNotFound", err)
	}
	if n, err := s.IncrementClicksAndTouch(ctx, "del001"); err != nil || n != 0 {
		t.Errorf("IncrementClicksAndTouch() after delete = %d, %v, want 0, nil", n, err)
	}

	deleted, err = s.DeleteByCode(ctx, "del001")
	if err != nil {
		t.Fatalf("second DeleteByCode() error = %v", err)
	}
	if deleted {
		t.Error("second DeleteByCode() = true, want false")
	}
}

func testListOrder(t *testing.T, s domain.LinkStore) {
	codes := []string{"ord001", "ord002", "ord003"}
	for _, c := range codes {
		mustInsert(t, s, c, "https://example.com/"+c)
		time.Sleep(2 * time.Millisecond)
	}

	links, err := s.ListAll(context.Background(), "")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(links) != len(codes) {
		t.Fatalf("ListAll() returned %d links, want %d", len(links), len(codes))
	}
	want := []string{"ord003", "ord002", "ord001"}
	for i, l := range links {
		if l.Code != want[i] {
			t.Errorf("ListAll()[%d] = %q, want %q", i, l.Code, want[i])
		}
	}
}

func testListSearch(t *testing.T, s domain.LinkStore) {
	mustInsert(t, s, "golang", "https://go.dev/doc")
	mustInsert(t, s, "rustyy", "https://www.rust-lang.org")
	mustInsert(t, s, "pct100", "https://example.com/100%25off")

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "empty matches all", search: "", want: []string{"pct100", "rustyy", "golang"}},
		{name: "code substring", search: "lan", want: []string{"rustyy", "golang"}},
		{name: "case insensitive", search: "GO.DEV", want: []string{"golang"}},
		{name: "target substring", search: "rust-lang", want: []string{"rustyy"}},
		{name: "wildcards are literal", search: "%", want: []string{"pct100"}},
		{name: "underscore is literal", search: "_", want: nil},
		{name: "no match", search: "zzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := s.ListAll(context.Background(), tt.search)
			if err != nil {
				t.Fatalf("ListAll(%q) error = %v", tt.search, err)
			}
			got := make(map[string]bool, len(links))
			for _, l := range links {
				got[l.Code] = true
			}
			if len(links) != len(tt.want) {
				t.Fatalf("ListAll(%q) returned %d links, want %d", tt.search, len(links), len(tt.want))
			}
			for _, c := range tt.want {
				if !got[c] {
					t.Errorf("ListAll(%q) missing %q", tt.search, c)
				}
			}
		})
	}
}

// ClockedFactory returns a fresh, empty store whose timestamps come from now.
type ClockedFactory func(t *testing.T, now func() time.Time) domain.LinkStore

// RunClocked executes the cases that need control over the store's clock.
func RunClocked(t *testing.T, newStore ClockedFactory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s domain.LinkStore, set func(time.Time))
	}{
		{"click before creation", testClickBeforeCreation},
		{"click with clock stepped back", testClickClockBackwards},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu      sync.Mutex
				current = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			)
			now := func() time.Time {
				mu.Lock()
				defer mu.Unlock()
				return current
			}
			set := func(ts time.Time) {
				mu.Lock()
				current = ts
				mu.Unlock()
			}
			tt.fn(t, newStore(t, now), set)
		})
	}
}

func mustClick(t *testing.T, s domain.LinkStore, code string) *domain.Link {
	t.Helper()
	ctx := context.Background()
	if _, err := s.IncrementClicksAndTouch(ctx, code); err != nil {
		t.Fatalf("IncrementClicksAndTouch(%q) error = %v", code, err)
	}
	link, err := s.FindByCode(ctx, code)
	if err != nil {
		t.Fatalf("FindByCode(%q) error = %v", code, err)
	}
	return link
}

func testClickBeforeCreation(t *testing.T, s domain.LinkStore, set func(time.Time)) {
	created := mustInsert(t, s, "early1", "https://example.com").CreatedAt

	set(created.Add(-time.Hour))
	link := mustClick(t, s, "early1")

	if link.LastClickedAt == nil || !link.LastClickedAt.Equal(created) {
		t.Errorf("LastClickedAt = %v, want %v", link.LastClickedAt, created)
	}
}

func testClickClockBackwards(t *testing.T, s domain.LinkStore, set func(time.Time)) {
	created := mustInsert(t, s, "back01", "https://example.com").CreatedAt

	later := created.Add(2 * time.Second)
	set(later)
	mustClick(t, s, "back01")

	set(created.Add(time.Second))
	link := mustClick(t, s, "back01")

	if link.TotalClicks != 2 {
		t.Errorf("TotalClicks = %d, want 2", link.TotalClicks)
	}
	if link.LastClickedAt == nil || !link.LastClickedAt.Equal(later) {
		t.Errorf("LastClickedAt = %v, want %v", link.LastClickedAt, later)
	}
}
