/*
middleware.go - response caching and rate limiting

PURPOSE:
  Two local middlewares on top of chi's stock stack:
  - CacheGET: short-TTL response cache for hot read endpoints (the week
    grid is fetched on every page load by every client)
  - RateLimit: per-client token bucket keyed by the identity header,
    falling back to the remote address

CACHE INVALIDATION:
  None. The TTL is short enough that a stale grid self-heals within
  seconds; writes are rare compared to reads.
*/
package api

import (
	"bytes"
	"net"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// =============================================================================
// RESPONSE CACHE
// =============================================================================

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// responseRecorder tees a handler's output so it can be cached.
type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// CacheGET caches successful GET responses for ttl. The cache key
// includes the identity headers because visibility is role-dependent.
func CacheGET(ttl time.Duration) func(http.Handler) http.Handler {
	store := gocache.New(ttl, 2*ttl)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := r.URL.RequestURI() + "|" + r.Header.Get("X-Employee-ID") + "|" + r.Header.Get("X-Employee-Role")
			if v, ok := store.Get(key); ok {
				cached := v.(cachedResponse)
				for k, vals := range cached.header {
					w.Header()[k] = vals
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.status)
				w.Write(cached.body)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK {
				store.Set(key, cachedResponse{
					status: rec.status,
					header: w.Header().Clone(),
					body:   rec.buf.Bytes(),
				}, ttl)
			}
		})
	}
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// clientLimiter tracks one token bucket per client. Stale buckets are
// swept lazily on the request path so the map does not grow with client
// churn and no background goroutine is needed.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	lastSeen  time.Duration
	nextSweep time.Time
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients:   make(map[string]*clientBucket),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		lastSeen:  10 * time.Minute,
		nextSweep: time.Now().Add(time.Minute),
	}
}

func (cl *clientLimiter) allow(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	if now.After(cl.nextSweep) {
		for k, b := range cl.clients {
			if now.Sub(b.seen) > cl.lastSeen {
				delete(cl.clients, k)
			}
		}
		cl.nextSweep = now.Add(time.Minute)
	}

	b, ok := cl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[key] = b
	}
	b.seen = now
	return b.limiter.Allow()
}

// RateLimit rejects clients exceeding perSecond requests (with a burst
// allowance) with 429. Clients are keyed by X-Employee-ID when present,
// otherwise by remote IP.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	cl := newClientLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Employee-ID")
			if key == "" {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				key = host
			}
			if !cl.allow(key) {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
