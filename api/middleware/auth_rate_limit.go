package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kivahq/kiva-backend/api/responses"
	"github.com/kivahq/kiva-backend/pkg/config"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/logger"
)

// AuthRateLimitPolicy describes the fixed-window limits for one auth endpoint.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int64
	emailLimit int64
}

// LoginRateLimitPolicy builds the login policy from config.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       "login",
		window:     cfg.LoginWindow,
		ipLimit:    int64(cfg.LoginIPLimit),
		emailLimit: int64(cfg.LoginEmailLimit),
	}
}

// RegisterRateLimitPolicy builds the registration policy from config.
func RegisterRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       "register",
		window:     cfg.RegisterWindow,
		ipLimit:    int64(cfg.RegisterIPLimit),
		emailLimit: int64(cfg.RegisterEmailLimit),
	}
}

// RateLimitStore is the counter surface the auth rate limiter needs.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimit enforces per-IP and per-email fixed-window limits on an
// unauthenticated auth endpoint.
func AuthRateLimit(store RateLimitStore, policy AuthRateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || policy.window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if ip != "" && policy.ipLimit > 0 {
				scope := policy.name + ":ip:" + hashValue(ip)
				allowed, count, err := store.FixedWindowAllow(r.Context(), scope, policy.ipLimit, policy.window)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "auth rate limit check failed", err)
					}
				} else if !allowed {
					respondRateLimited(r, w, logg, policy.name, "ip", count)
					return
				}
			}

			email := extractEmail(r)
			if email != "" && policy.emailLimit > 0 {
				scope := policy.name + ":email:" + hashValue(email)
				allowed, count, err := store.FixedWindowAllow(r.Context(), scope, policy.emailLimit, policy.window)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "auth rate limit check failed", err)
					}
				} else if !allowed {
					respondRateLimited(r, w, logg, policy.name, "email", count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(r *http.Request, w http.ResponseWriter, logg *logger.Logger, policy, dimension string, count int64) {
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"policy":    policy,
			"dimension": dimension,
			"count":     count,
		})
		logg.Warn(ctx, "auth request rate limited")
	}
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// extractEmail peeks at the JSON body for the email field and restores the
// body for downstream handlers.
func extractEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
