package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vrooli/request-guard/pkg/guard"
	"github.com/vrooli/request-guard/pkg/limiter"
	"github.com/vrooli/request-guard/pkg/origin"
	"github.com/vrooli/request-guard/pkg/trust"
)

// demoSessions stands in for the platform's session layer: whatever user the
// session already carries is the resolved user.
type demoSessions struct{}

func (demoSessions) GetUser(ctx context.Context, s *trust.Session) (*trust.User, error) {
	return s.PrimaryUser(), nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Without REDIS_ADDR the coordinator runs with no backing store and
	// admits everything (local development). With it, a dead Redis fails
	// requests instead of silently disabling the limits.
	var rl limiter.RateLimiter
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		l, err := limiter.NewRedisLimiter(client,
			limiter.WithPrefix("demo:"),
			limiter.WithTimeout(100*time.Millisecond),
			limiter.WithLogger(logger),
		)
		if err != nil {
			logger.Fatal("redis limiter", zap.Error(err))
		}
		rl = l
	} else {
		logger.Warn("REDIS_ADDR not set, distributed rate limiting disabled")
	}

	classifier := origin.NewClassifier(origin.ConfigFromEnv())
	resolver := trust.NewResolver(demoSessions{}, logger)
	coord := guard.NewCoordinator(rl, logger)

	// process-local front throttle so a flood is shed before it reaches Redis
	front := rate.NewLimiter(rate.Limit(500), 1000)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !front.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/ping", func(w http.ResponseWriter, req *http.Request) {
		sess := sessionFromRequest(req, classifier)

		greq := guard.Request{Session: sess, IP: clientIP(req), Operation: "ping"}
		opts := guard.Options{MaxAPI: 250, MaxIP: 500, MaxUser: 1000, Window: time.Minute}
		if err := coord.RateLimit(req.Context(), greq, opts); err != nil {
			writeAdmissionError(w, err)
			return
		}

		if _, err := resolver.Resolve(req.Context(), sess, trust.Conditions{User: true}); err != nil {
			writeAdmissionError(w, err)
			return
		}

		logger.Info("request admitted",
			zap.String("device", guard.DeviceInfo(req)),
			zap.Strings("languages", guard.AcceptLanguages(req)),
		)
		w.Write([]byte("pong\n"))
	})

	// simulates realtime-socket admission: errors are reported in the
	// response body the way a socket transport would emit them
	r.Post("/connect", func(w http.ResponseWriter, req *http.Request) {
		sess := sessionFromRequest(req, classifier)
		sock := guard.Socket{Session: sess, IP: clientIP(req), ID: uuid.New().String()}

		opts := guard.SocketOptions{MaxIP: 500, MaxUser: 1000, Window: time.Minute}
		if msg := coord.RateLimitSocket(req.Context(), sock, opts); msg != "" {
			http.Error(w, msg, http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sock.ID + "\n"))
	})

	addr := ":8080"
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

// sessionFromRequest fakes the external session layer for the demo: an
// X-Api-Token header is the credential, a user-id cookie is a login.
func sessionFromRequest(req *http.Request, c *origin.Classifier) *trust.Session {
	sess := &trust.Session{
		APIToken:       req.Header.Get("X-Api-Token"),
		FromSafeOrigin: c.IsSafeOrigin(req),
	}
	if cookie, err := req.Cookie("user-id"); err == nil && cookie.Value != "" {
		sess.LoggedIn = true
		sess.Users = []trust.User{{ID: cookie.Value}}
	}
	return sess
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case limiter.IsExceeded(err):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, trust.ErrMustUseAPIToken):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, trust.ErrNotLoggedIn), errors.Is(err, trust.ErrNotLoggedInOfficial):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
