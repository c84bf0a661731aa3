package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS []string         // IPs allowed to access readyz and seed reload
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Resolver  *domain.Resolver
	Allocator *domain.Allocator
	Links     domain.LinkStore

	Ready       func(ctx context.Context) error // store health probe, nil means always ready
	SeedTrigger chan struct{}                   // nil when seeding is disabled
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
