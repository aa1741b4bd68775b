package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/logger"
	"github.com/smartmark/smartmark/internal/realtime"
	"github.com/smartmark/smartmark/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Store  store.Store                     // bookmark persistence
	DBPing func(ctx context.Context) error // database liveness probe
	Events realtime.Subscriber             // per-owner change-event subscriptions

	Sessions *auth.Manager        // JWT session cookies
	Google   *auth.GoogleProvider // OAuth code flow

	SecureCookies bool
	TrustProxy    bool     // true if running behind a trusted reverse proxy
	AllowedHosts  []string // Host headers allowed to access the server (empty = all)
	AllowedCIDRS  []string // IPs allowed on infra endpoints (empty = all)

	AuthRateBurst  int // rate limit on OAuth entry points
	AuthRatePerMin int

	SeedReloadTrigger chan struct{} // nil when no seed file is configured
	RedisClient       *redis.Client // nil unless the event bridge is enabled
}
