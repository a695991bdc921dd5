package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"binance-mcp/internal/domain"

	"golang.org/x/time/rate"
)

const defaultMCPMaxBodyBytes int64 = 1 << 20 // 1MiB

type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// httpGuard admits a request to the MCP endpoint: it authenticates the
// caller, charges its rate bucket and caps the body it may send.
type httpGuard struct {
	token   []byte
	limiter *httpRateLimiter
	maxBody int64
}

func newHTTPGuard(cfg HTTPHandlerConfig) *httpGuard {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMCPMaxBodyBytes
	}
	return &httpGuard{
		token:   []byte(strings.TrimSpace(cfg.AuthToken)),
		limiter: newHTTPRateLimiter(cfg.RateLimitPerMin),
		maxBody: maxBody,
	}
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	return newHTTPGuard(cfg).wrap(base)
}

func (g *httpGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, msg := g.authenticate(r); status != 0 {
			writeJSONError(w, status, msg)
			return
		}
		if !g.limiter.Allow(rateLimitKey(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, g.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate returns a non-zero status when the request must be refused.
func (g *httpGuard) authenticate(r *http.Request) (int, string) {
	presented, ok := bearerToken(r)
	if !ok {
		return http.StatusUnauthorized, "missing bearer token"
	}
	if len(g.token) == 0 || subtle.ConstantTimeCompare([]byte(presented), g.token) != 1 {
		return http.StatusForbidden, "invalid bearer token"
	}
	return 0, ""
}

// bearerToken extracts the credential of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// rateLimitKey gives every Binance account its own budget. Callers without
// session credentials share a bucket per bearer token and client host.
func rateLimitKey(r *http.Request) string {
	if key, _ := credentialHeaders(r); key != "" {
		return "account:" + domain.AccountKey(key)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		host = "unknown"
	}
	if token, ok := bearerToken(r); ok {
		return token + "|" + host
	}
	return host
}

// httpRateLimiter keeps one token bucket per key. The bucket holds a full
// minute of requests.
type httpRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newHTTPRateLimiter(perMin int) *httpRateLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	return &httpRateLimiter{
		limit:    rate.Limit(float64(perMin) / 60.0),
		burst:    perMin,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *httpRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key == "" {
		key = "default"
	}

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
