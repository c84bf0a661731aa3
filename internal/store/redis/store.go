package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// Store keeps each link in a hash and orders them with a sorted set.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

var _ domain.LinkStore = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// WithClock swaps the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	fields, err := s.client.HGetAll(ctx, LinkKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeLink(fields)
}

func (s *Store) InsertIfAbsent(ctx context.Context, code, targetURL string) (*domain.Link, error) {
	created := s.now().UTC()
	micros := created.UnixMicro()

	id, err := insertScript.Run(ctx, s.client,
		[]string{LinkKey(code), KeyLinkSequence, KeyLinksByCreated},
		code, targetURL, micros,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("failed to insert link: %w", err)
	}
	if id == 0 {
		return nil, &domain.ConflictError{Code: code}
	}

	return &domain.Link{
		ID:        id,
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: time.UnixMicro(micros).UTC(),
	}, nil
}

func (s *Store) IncrementClicksAndTouch(ctx context.Context, code string) (int64, error) {
	n, err := touchScript.Run(ctx, s.client,
		[]string{LinkKey(code)},
		s.now().UTC().UnixMicro(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to record click: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteByCode(ctx context.Context, code string) (bool, error) {
	n, err := deleteScript.Run(ctx, s.client,
		[]string{LinkKey(code), KeyLinksByCreated},
		code,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	return n > 0, nil
}

// ListAll walks the created index newest first and filters client side.
func (s *Store) ListAll(ctx context.Context, search string) ([]domain.Link, error) {
	codes, err := s.client.ZRevRange(ctx, KeyLinksByCreated, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}

	links := make([]domain.Link, 0, len(codes))
	if len(codes) == 0 {
		return links, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.HGetAll(ctx, LinkKey(code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	needle := strings.ToLower(search)
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Deleted after ZREVRANGE.
			continue
		}
		link, err := decodeLink(fields)
		if err != nil {
			return nil, err
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(link.Code), needle) &&
			!strings.Contains(strings.ToLower(link.TargetURL), needle) {
			continue
		}
		links = append(links, *link)
	}
	return links, nil
}

func decodeLink(fields map[string]string) (*domain.Link, error) {
	id, err := strconv.ParseInt(fields[fieldID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt link id %q: %w", fields[fieldID], err)
	}
	clicks, err := strconv.ParseInt(fields[fieldClicks], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt click count %q: %w", fields[fieldClicks], err)
	}
	created, err := parseMicros(fields[fieldCreated])
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}

	link := &domain.Link{
		ID:          id,
		Code:        fields[fieldCode],
		TargetURL:   fields[fieldTarget],
		TotalClicks: clicks,
		CreatedAt:   created,
	}
	if raw := fields[fieldLastClicked]; raw != "" {
		t, err := parseMicros(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_clicked_at: %w", err)
		}
		link.LastClickedAt = &t
	}
	return link, nil
}

func parseMicros(raw string) (time.Time, error) {
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(us).UTC(), nil
}
