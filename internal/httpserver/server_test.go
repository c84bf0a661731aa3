package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/store/memory"
)

type testEnv struct {
	store   *memory.Store
	handler http.Handler
	trigger chan struct{}
}

func newTestEnv(t *testing.T, mutate ...func(*deps.Deps)) *testEnv {
	t.Helper()
	store := memory.New()
	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:      logger.Nop(),
		StartTime:   time.Now().Add(-90 * time.Second),
		Version:     "1.2.3",
		Commit:      "abc1234",
		GoVersion:   "go1.25",
		Resolver:    domain.NewResolver(store),
		Allocator:   domain.NewAllocator(store),
		Links:       store,
		Ready:       store.Ping,
		SeedTrigger: trigger,
	}
	for _, m := range mutate {
		m(&d)
	}
	return &testEnv{
		store:   store,
		handler: NewRouter(logger.Nop(), 5*time.Second, d),
		trigger: trigger,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestCreateAndRedirect(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/links", `{"target_url":"https://example.com/x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	link := decode[map[string]any](t, rec)
	code, _ := link["code"].(string)
	if !domain.ValidCode(code) || len(code) != domain.GeneratedCodeLength {
		t.Fatalf("generated code %q", code)
	}
	for _, field := range []string{"id", "code", "target_url", "total_clicks", "last_clicked_at", "created_at"} {
		if _, ok := link[field]; !ok {
			t.Errorf("response missing %q: %v", field, link)
		}
	}
	if link["last_clicked_at"] != nil {
		t.Errorf("last_clicked_at = %v, want null", link["last_clicked_at"])
	}

	rec = env.do(t, http.MethodGet, "/"+code, "")
	if rec.Code != http.StatusFound {
		t.Fatalf("GET /%s status = %d", code, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/x" {
		t.Errorf("Location = %q", loc)
	}

	rec = env.do(t, http.MethodGet, "/api/links/"+code, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET link status = %d", rec.Code)
	}
	got := decode[domain.Link](t, rec)
	if got.TotalClicks != 1 || got.LastClickedAt == nil {
		t.Errorf("after one redirect: %+v", got)
	}
}

func TestCreateWithCustomCode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/links", `{"target_url":"https://example.com","code":"abcdef12"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[domain.Link](t, rec); got.Code != "abcdef12" {
		t.Errorf("code = %q", got.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/links", `{"target_url":"https://other.example","code":"abcdef12"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Code already exists" {
		t.Errorf("error = %q", msg)
	}
}

func TestCreateRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"short code", `{"target_url":"https://example.com","code":"ab"}`, http.StatusBadRequest, "Code must be 6-8 alphanumeric characters"},
		{"long code", `{"target_url":"https://example.com","code":"abcdefghi"}`, http.StatusBadRequest, "Code must be 6-8 alphanumeric characters"},
		{"bad url", `{"target_url":"not-a-url"}`, http.StatusBadRequest, "Invalid URL provided"},
		{"missing url", `{"code":"abcdef"}`, http.StatusBadRequest, "Invalid URL provided"},
		{"url before code", `{"target_url":"nope","code":"ab"}`, http.StatusBadRequest, "Invalid URL provided"},
		{"malformed json", `{"target_url":`, http.StatusBadRequest, "Invalid request body"},
		{"wrong type", `{"target_url":42}`, http.StatusBadRequest, "Invalid request body"},
		{"too large", `{"target_url":"https://example.com/` + strings.Repeat("a", 2<<20) + `"}`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/links", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Errorf("error = %q, want %q", msg, tt.message)
			}
			if env.store.Count() != 0 {
				t.Errorf("rejected request stored %d links", env.store.Count())
			}
		})
	}
}

func TestRedirectNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/doesnotexist", "/nope12", "/api"} {
		rec := env.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHeadDoesNotCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.store.InsertIfAbsent(ctx, "head01", "https://example.com/h"); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodHead, "/head01", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "https://example.com/h" {
		t.Fatalf("HEAD = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := env.do(t, http.MethodHead, "/nope12", ""); rec.Code != http.StatusNotFound {
		t.Errorf("HEAD missing = %d, want 404", rec.Code)
	}

	link, _ := env.store.FindByCode(ctx, "head01")
	if link.TotalClicks != 0 {
		t.Errorf("HEAD counted %d clicks", link.TotalClicks)
	}
}

func TestGetLinkNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/links/nope12", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Link not found" {
		t.Errorf("error = %q", msg)
	}
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.store.InsertIfAbsent(context.Background(), "del001", "https://example.com"); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodDelete, "/api/links/del001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["message"]; got != "Link deleted successfully" {
		t.Errorf("message = %q", got)
	}

	if rec := env.do(t, http.MethodDelete, "/api/links/del001", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/del001", ""); rec.Code != http.StatusNotFound {
		t.Errorf("redirect after delete = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/links/del001", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestListLinks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/links", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list = %d %q, want 200 []", rec.Code, rec.Body)
	}

	ctx := context.Background()
	for _, l := range []struct{ code, url string }{
		{"first1", "https://alpha.example"},
		{"second", "https://beta.example/docs"},
		{"third3", "https://gamma.example"},
	} {
		if _, err := env.store.InsertIfAbsent(ctx, l.code, l.url); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	all := decode[[]domain.Link](t, env.do(t, http.MethodGet, "/api/links", ""))
	if len(all) != 3 || all[0].Code != "third3" || all[2].Code != "first1" {
		t.Errorf("list order = %+v, want newest first", all)
	}

	hits := decode[[]domain.Link](t, env.do(t, http.MethodGet, "/api/links?search=BETA", ""))
	if len(hits) != 1 || hits[0].Code != "second" {
		t.Errorf("search by target = %+v", hits)
	}
	hits = decode[[]domain.Link](t, env.do(t, http.MethodGet, "/api/links?search=ird", ""))
	if len(hits) != 1 || hits[0].Code != "third3" {
		t.Errorf("search by code = %+v", hits)
	}
}

func TestConcurrentRedirects(t *testing.T) {
	const clicks = 100
	env := newTestEnv(t)
	if _, err := env.store.InsertIfAbsent(context.Background(), "hot001", "https://example.com"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hot001", nil))
			if rec.Code != http.StatusFound {
				t.Errorf("status = %d", rec.Code)
			}
		}()
	}
	wg.Wait()

	link, _ := env.store.FindByCode(context.Background(), "hot001")
	if link.TotalClicks != clicks {
		t.Errorf("TotalClicks = %d, want %d", link.TotalClicks, clicks)
	}
}

func TestConcurrentCustomCodeCreates(t *testing.T) {
	const racers = 20
	env := newTestEnv(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"target_url":"https://example.com/%d","code":"race01"}`, i)
			req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			mu.Lock()
			statuses[rec.Code]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if statuses[http.StatusCreated] != 1 || statuses[http.StatusConflict] != racers-1 {
		t.Errorf("statuses = %v, want 1 created and %d conflicts", statuses, racers-1)
	}
}

func TestHealthz(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env := newTestEnv(t, func(d *deps.Deps) {
		d.StartTime = fixed.Add(-42 * time.Second)
		d.TimeNow = func() time.Time { return fixed }
	})

	rec := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["ok"] != true || body["uptime"] != "42s" || body["version"] != "1.2.3" {
		t.Errorf("healthz = %v", body)
	}
	if body["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	down := newTestEnv(t, func(d *deps.Deps) {
		d.Ready = func(context.Context) error { return errors.New("connection refused") }
	})
	rec := down.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down status = %d", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["ready"] != false || body["error"] == "" {
		t.Errorf("down body = %v", body)
	}
}

func TestAllowlist(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
	})

	// httptest requests come from 192.0.2.1.
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusForbidden {
		t.Errorf("readyz from outside = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/seed/reload", ""); rec.Code != http.StatusForbidden {
		t.Errorf("seed reload from outside = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay public, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz from inside = %d, want 200", rec.Code)
	}
}

func TestSeedReload(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/seed/reload", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("first trigger = %d, want 202", rec.Code)
	}
	// Nobody drains the channel, so the second one is pending.
	if rec := env.do(t, http.MethodPost, "/api/seed/reload", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second trigger = %d, want 429", rec.Code)
	}
	<-env.trigger

	disabled := newTestEnv(t, func(d *deps.Deps) { d.SeedTrigger = nil })
	if rec := disabled.do(t, http.MethodPost, "/api/seed/reload", ""); rec.Code != http.StatusNotFound {
		t.Errorf("disabled seeding = %d, want 404", rec.Code)
	}
}

type brokenStore struct{ domain.LinkStore }

var errBroken = errors.New("store is down")

func (brokenStore) FindByCode(context.Context, string) (*domain.Link, error) { return nil, errBroken }
func (brokenStore) InsertIfAbsent(context.Context, string, string) (*domain.Link, error) {
	return nil, errBroken
}
func (brokenStore) DeleteByCode(context.Context, string) (bool, error)     { return false, errBroken }
func (brokenStore) ListAll(context.Context, string) ([]domain.Link, error) { return nil, errBroken }

func TestStoreFailures(t *testing.T) {
	store := brokenStore{}
	env := newTestEnv(t, func(d *deps.Deps) {
		d.Links = store
		d.Resolver = domain.NewResolver(store)
		d.Allocator = domain.NewAllocator(store)
	})

	tests := []struct {
		method, path, body string
		message            string
	}{
		{http.MethodGet, "/abcdef", "", "Failed to resolve link"},
		{http.MethodPost, "/api/links", `{"target_url":"https://example.com","code":"abcdef"}`, "Failed to create link"},
		{http.MethodGet, "/api/links/abcdef", "", "Failed to fetch link"},
		{http.MethodDelete, "/api/links/abcdef", "", "Failed to delete link"},
		{http.MethodGet, "/api/links", "", "Failed to fetch links"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Errorf("error = %q, want %q", msg, tt.message)
			}
		})
	}
}

func TestAllocationExhausted(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.Allocator = domain.NewAllocator(d.Links,
			domain.WithGenerator(func() (string, error) { return "same01", nil }))
	})
	if _, err := env.store.InsertIfAbsent(context.Background(), "same01", "https://example.com"); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/links", `{"target_url":"https://example.com/2"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
