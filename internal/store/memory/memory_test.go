package memory

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.LinkStore {
		return New()
	})
}

func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.Count() != 0 {
		t.Errorf("New() should start empty, got %d links", s.Count())
	}
}

func TestStoreClock(t *testing.T) {
	storetest.RunClocked(t, func(t *testing.T, now func() time.Time) domain.LinkStore {
		return New().WithClock(now)
	})
}

func TestFindReturnsCopy(t *testing.T) {
	s := New()
	if _, err := s.InsertIfAbsent(context.Background(), "copy01", "https://example.com"); err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}

	got, _ := s.FindByCode(context.Background(), "copy01")
	got.TotalClicks = 99
	got.TargetURL = "https://evil.example"

	again, _ := s.FindByCode(context.Background(), "copy01")
	if again.TotalClicks != 0 || again.TargetURL != "https://example.com" {
		t.Errorf("mutating a returned link changed the store: %+v", again)
	}
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.InsertIfAbsent(ctx, "ctx001", "https://example.com"); err == nil {
		t.Error("InsertIfAbsent() with cancelled context should fail")
	}
	if s.Count() != 0 {
		t.Errorf("cancelled insert stored a link")
	}
}
