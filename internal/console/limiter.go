package console

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// connLimiter applies a token bucket per peer IP and evicts idle peers.
type connLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu     sync.Mutex
	byIP   map[string]*peer
	checks uint64
}

type peer struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newConnLimiter returns nil when perSecond is not positive; a nil limiter
// allows everything.
func newConnLimiter(perSecond float64, burst int) *connLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &connLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		byIP:    make(map[string]*peer),
	}
}

func (l *connLimiter) Allow(ip string, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.byIP[ip]
	if !ok {
		p = &peer{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byIP[ip] = p
	}
	p.lastSeen = now
	allowed := p.limiter.AllowN(now, 1)

	l.checks++
	if l.checks%256 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byIP {
			if v.lastSeen.Before(cutoff) {
				delete(l.byIP, k)
			}
		}
	}

	return allowed
}
