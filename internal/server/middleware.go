package server

import (
	"bufio"
	"context"
	"crypto/subtle"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// requestInfo travels with a request so handlers can add what they ran
// to the access log line.
type requestInfo struct {
	id      string
	command string
	kind    models.ErrorKind
}

type requestInfoKey struct{}

// infoFrom returns the request's info. Outside observe it returns a
// throwaway value so handlers can always write to it.
func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// observe tags each request with an id, turns handler panics into a 500
// and writes one access log line with the command the request ran.
func observe(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{id: uuid.NewString()}
			w.Header().Set("X-Request-ID", info.id)
			sr := &statusRecorder{ResponseWriter: w}

			defer func() {
				if p := recover(); p != nil {
					logger.Error("handler panic", "panic", p, "request_id", info.id)
					if sr.status == 0 {
						writeError(sr, http.StatusInternalServerError, "internal_error", "internal server error")
					}
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", sr.code(),
					"latency_ms", time.Since(start).Milliseconds(),
					"request_id", info.id,
				}
				if info.command != "" {
					attrs = append(attrs, "command", info.command)
				}
				if info.kind != models.KindNone {
					attrs = append(attrs, "error_kind", info.kind)
				}
				logger.Info("request", attrs...)
			}()

			next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))
		})
	}
}

// requireToken rejects requests without "Authorization: Bearer <token>".
// An empty token turns the check off.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "auth_failed", "missing or invalid Authorization header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// commandLimiter is a per-client token bucket on command execution. HTTP
// exec and clear requests and websocket command frames share a bucket, so
// switching transport does not reset a client's budget.
type commandLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientBucket
	lastPrune time.Time
	now       func() time.Time
}

type clientBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// idleBucket is how long an unused bucket is kept. A full refill takes a
// minute, so older buckets are indistinguishable from new ones.
const idleBucket = 2 * time.Minute

func newCommandLimiter(perMinute int) *commandLimiter {
	return &commandLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientBucket),
		now:       time.Now,
	}
}

// allow takes one token from key's bucket. A non-positive limit allows everything.
func (l *commandLimiter) allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > idleBucket {
		for k, b := range l.clients {
			if now.Sub(b.seen) > idleBucket {
				delete(l.clients, k)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{lim: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.perMinute)}
		l.clients[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// retryAfter is the time in whole seconds for one token to refill.
func (l *commandLimiter) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(60 / float64(l.perMinute))))
}

func (l *commandLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			w.Header().Set("Retry-After", l.retryAfter())
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies a client by remote host, ignoring the port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder remembers the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

// Hijack hands the connection to the websocket upgrader.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(sr.ResponseWriter).Hijack()
	if err == nil {
		sr.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (sr *statusRecorder) code() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}
