package middleware

import (
	"context"
	"net/http"
	"time"

	"agromart/globals"
	"agromart/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Middleware wraps an outgoing transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain applies mws so that the first one sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// WithAuth marks a request context as needing the bearer credential.
func WithAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, globals.AuthRequiredKey, true)
}

func authRequired(ctx context.Context) bool {
	v, _ := ctx.Value(globals.AuthRequiredKey).(bool)
	return v
}

// Authenticate attaches "Authorization: Bearer <token>" to requests marked
// with WithAuth. When such a request comes back 401, onExpired runs so the
// session can be destroyed.
func Authenticate(token func() string, onExpired func()) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if !authRequired(r.Context()) {
				return next.RoundTrip(r)
			}
			tok := token()
			if tok != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+tok)
			}
			resp, err := next.RoundTrip(r)
			if err == nil && resp.StatusCode == http.StatusUnauthorized && tok != "" && onExpired != nil {
				onExpired()
			}
			return resp, err
		})
	}
}

// RequestID stamps every request with X-Request-ID.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			id, _ := r.Context().Value(globals.RequestIDKey).(string)
			if id == "" {
				id = utils.GetUUID()
			}
			r = r.Clone(r.Context())
			r.Header.Set("X-Request-ID", id)
			return next.RoundTrip(r)
		})
	}
}

// Logging logs each request method, path, status, and duration.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			var ev *zerolog.Event
			if err != nil {
				ev = logger.Warn().Err(err)
			} else {
				ev = logger.Debug().Int("status", resp.StatusCode)
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Dur("took", time.Since(start)).
				Msg("api call")
			return resp, err
		})
	}
}

// JWT claims issued by the marketplace backend
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the credential without verifying its signature; the
// client has no key and only wants the expiry. Opaque credentials return an
// error.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Expired reports whether token carries an exp claim at or before now.
// Credentials that are not JWTs, or carry no exp, are never considered
// expired here; the backend's 401 is the authority for those.
func Expired(token string, now time.Time) bool {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
