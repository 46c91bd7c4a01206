package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/cache"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
)

const (
	// minAuthDuration is the minimum time to spend on API key auth to
	// prevent timing attacks. JWT verification is constant-time already.
	minAuthDuration = 200 * time.Millisecond
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
	JWT        *auth.JWTIssuer
}

// Auth returns a middleware that authenticates API requests.
// Two credential paths are accepted: a JWT access token in the
// Authorization header, or an API key in either the Authorization or
// X-API-Key header. The resolved auth context is injected into the
// request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			if credential == "" {
				logAuthFailure(cfg.Logger, r, "missing_credential")
				writeAuthError(w)
				return
			}

			if auth.ValidateKeyFormat(credential) {
				authenticateAPIKey(cfg, next, w, r, credential)
				return
			}

			authenticateJWT(cfg, next, w, r, credential)
		})
	}
}

// authenticateJWT verifies a JWT access token and builds the auth
// context from its claims. No database round trip on this path.
func authenticateJWT(cfg AuthConfig, next http.Handler, w http.ResponseWriter, r *http.Request, token string) {
	claims, err := cfg.JWT.VerifyAccessToken(token)
	if err != nil {
		logAuthFailure(cfg.Logger, r, "invalid_token")
		writeAuthError(w)
		return
	}

	authCtx := &model.AuthContext{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Scopes:   claims.Scopes,
		Method:   model.AuthMethodJWT,
	}

	ctx := auth.ContextWithAuth(r.Context(), authCtx)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// authenticateAPIKey verifies an API key credential.
// Checks the cache first; on miss, looks up candidates by prefix and
// verifies against each hash.
func authenticateAPIKey(cfg AuthConfig, next http.Handler, w http.ResponseWriter, r *http.Request, key string) {
	startTime := time.Now()

	// Ensure consistent timing regardless of outcome
	defer func() {
		elapsed := time.Since(startTime)
		if elapsed < minAuthDuration {
			time.Sleep(minAuthDuration - elapsed)
		}
	}()

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		logAuthFailure(cfg.Logger, r, "invalid_format")
		writeAuthError(w)
		return
	}

	// Check cache first
	cacheKey := auth.QuickHash(key)
	authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey)

	if authCtx != nil {
		logAuthSuccess(cfg.Logger, r, authCtx, true)
		ctx := auth.ContextWithAuth(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	// Cache miss - lookup by prefix
	keys, err := cfg.Repository.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("database error during auth",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeAuthError(w)
		return
	}

	// Verify against each candidate key (handles prefix collisions)
	var matchedKey *model.APIKey
	for _, k := range keys {
		match, err := auth.VerifyPassword(key, k.KeyHash)
		if err != nil {
			continue
		}
		if match {
			matchedKey = k
			break
		}
	}

	if matchedKey == nil || matchedKey.IsExpired() {
		logAuthFailure(cfg.Logger, r, "invalid_key")
		writeAuthError(w)
		return
	}

	// The key alone is not enough: the owning account must be active.
	user, err := cfg.Repository.GetUserByID(r.Context(), matchedKey.UserID)
	if err != nil || !user.IsActive() {
		logAuthFailure(cfg.Logger, r, "account_inactive")
		writeAuthError(w)
		return
	}

	authCtx = &model.AuthContext{
		UserID:        matchedKey.UserID,
		Username:      user.Username,
		Role:          user.Role,
		Scopes:        matchedKey.Scopes,
		Method:        model.AuthMethodAPIKey,
		KeyID:         matchedKey.ID,
		KeyPrefix:     matchedKey.KeyPrefix,
		RateLimitTier: matchedKey.RateLimitTier,
	}

	// Cache the result
	_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)

	// Update last_used_at off the request path.
	touchCtx := detachedContext(r)
	go func() {
		_ = cfg.Repository.TouchAPIKey(touchCtx, matchedKey.ID, time.Now())
	}()

	logAuthSuccess(cfg.Logger, r, authCtx, false)

	ctx := auth.ContextWithAuth(r.Context(), authCtx)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// detachedContext returns a context for background work spawned from a
// request. The request context dies when the handler returns, so the
// work detaches from its cancellation while keeping its values.
func detachedContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

func logAuthSuccess(logger *slog.Logger, r *http.Request, authCtx *model.AuthContext, cacheHit bool) {
	logger.Info("authentication successful",
		slog.String("user_id", authCtx.UserID),
		slog.String("method", string(authCtx.Method)),
		slog.String("key_prefix", authCtx.KeyPrefix),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Bool("cache_hit", cacheHit),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractCredential extracts the auth credential from the request.
// Supports "Authorization: Bearer <token-or-key>" and "X-API-Key: <key>".
func extractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials"}}`))
}
