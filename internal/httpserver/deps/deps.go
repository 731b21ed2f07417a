package deps

import (
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DegradeView is the read side of the degrade registry.
type DegradeView interface {
	Count() int
	HasSource() bool
}

// Counter is anything that reports how many entries it holds.
type Counter interface {
	Count() int
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AppName      string
	AllowedCIDRS []string      // IPs allowed to access readyz, infra and the pull trigger
	TrustProxy   bool          // true if running behind a trusted reverse proxy
	RedisClient  *redis.Client // nil unless the degrade source is redis
	Degrades     DegradeView
	References   Counter
	Services     Counter
	CacheSize    func() int
	Sessions     func() int64  // open console sessions
	PullTrigger  chan struct{} // manual degrade pull, nil when no source is configured
}
