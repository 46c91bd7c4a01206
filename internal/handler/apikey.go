package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
)

// authCacheEvictor drops the cached auth context of a revoked API key.
// Satisfied by *cache.Cache.
type authCacheEvictor interface {
	DeleteAuthContextByKeyID(ctx context.Context, keyID string) error
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	repo   *repository.Repository
	cache  authCacheEvictor
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler. evictor may be nil to
// skip auth-cache eviction.
func NewAPIKeyHandler(repo *repository.Repository, evictor authCacheEvictor, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		repo:   repo,
		cache:  evictor,
		logger: logger,
	}
}

// Create handles POST /api/v1/api-keys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.MustAuthFromContext(ctx)

	var req model.APIKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	for _, scope := range req.Scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			writeError(w, http.StatusBadRequest, "INVALID_SCOPE", "Invalid scope: "+scope)
			return
		}
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{model.ScopeRead}
	}
	// A key cannot grant more than its creator holds.
	for _, scope := range req.Scopes {
		if !authCtx.HasScope(scope) {
			writeError(w, http.StatusForbidden, "SCOPE_EXCEEDS_GRANT", "Cannot grant scope "+scope)
			return
		}
	}

	generated, err := auth.GenerateAPIKey(auth.EnvLive)
	if err != nil {
		h.logger.Error("generate api key", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate API key")
		return
	}

	apiKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        authCtx.UserID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        req.Scopes,
		RateLimitTier: model.TierFree,
		Name:          req.Name,
		ExpiresAt:     req.ExpiresAt,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.repo.CreateAPIKey(ctx, apiKey); err != nil {
		h.logger.Error("create api key", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		return
	}

	h.logger.Info("api_key_created",
		"key_id", apiKey.ID,
		"key_prefix", apiKey.KeyPrefix,
		"user_id", apiKey.UserID,
	)

	// Plaintext is shown once only.
	writeJSON(w, http.StatusCreated, model.APIKeyCreateResponse{
		ID:            apiKey.ID,
		Key:           generated.Plaintext,
		Name:          apiKey.Name,
		KeyPrefix:     apiKey.KeyPrefix,
		Scopes:        apiKey.Scopes,
		RateLimitTier: apiKey.RateLimitTier,
		ExpiresAt:     apiKey.ExpiresAt,
		CreatedAt:     apiKey.CreatedAt,
	})
}

// List handles GET /api/v1/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.MustAuthFromContext(ctx)

	keys, err := h.repo.ListAPIKeysByUserID(ctx, authCtx.UserID)
	if err != nil {
		h.logger.Error("list api keys", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": responses})
}

// Revoke handles DELETE /api/v1/api-keys/{key_id}.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.MustAuthFromContext(ctx)

	keyID := chi.URLParam(r, "key_id")
	key, ok := h.getOwnedKey(w, ctx, keyID, authCtx.UserID)
	if !ok {
		return
	}

	if err := h.repo.RevokeAPIKey(ctx, key.ID); err != nil {
		h.logger.Error("revoke api key", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key")
		return
	}
	h.evictAuthCache(ctx, key.ID)

	h.logger.Info("api_key_revoked", "key_id", keyID, "user_id", authCtx.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Rotate handles POST /api/v1/api-keys/{key_id}/rotate. The new key
// inherits the old key's scopes and tier; the old key dies immediately.
func (h *APIKeyHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.MustAuthFromContext(ctx)

	keyID := chi.URLParam(r, "key_id")
	oldKey, ok := h.getOwnedKey(w, ctx, keyID, authCtx.UserID)
	if !ok {
		return
	}

	generated, err := auth.GenerateAPIKey(auth.EnvLive)
	if err != nil {
		h.logger.Error("generate api key", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate API key")
		return
	}

	now := time.Now().UTC()
	newKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        oldKey.UserID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        oldKey.Scopes,
		RateLimitTier: oldKey.RateLimitTier,
		Name:          oldKey.Name,
		ExpiresAt:     oldKey.ExpiresAt,
		CreatedAt:     now,
	}

	// Create the replacement first so rotation never strands the user
	// without a working key.
	if err := h.repo.CreateAPIKey(ctx, newKey); err != nil {
		h.logger.Error("create rotated api key", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rotate API key")
		return
	}
	if err := h.repo.RevokeAPIKey(ctx, oldKey.ID); err != nil {
		h.logger.Error("revoke old api key during rotation", "error", err)
	}
	h.evictAuthCache(ctx, oldKey.ID)

	h.logger.Info("api_key_rotated",
		"old_key_id", oldKey.ID,
		"new_key_id", newKey.ID,
		"user_id", authCtx.UserID,
	)

	writeJSON(w, http.StatusCreated, model.APIKeyRotateResponse{
		OldKeyID:        oldKey.ID,
		OldKeyRevokedAt: now,
		NewKey: model.APIKeyCreateResponse{
			ID:            newKey.ID,
			Key:           generated.Plaintext,
			Name:          newKey.Name,
			KeyPrefix:     newKey.KeyPrefix,
			Scopes:        newKey.Scopes,
			RateLimitTier: newKey.RateLimitTier,
			ExpiresAt:     newKey.ExpiresAt,
			CreatedAt:     newKey.CreatedAt,
		},
	})
}

// evictAuthCache drops the cached auth context so a revoked key stops
// authenticating immediately instead of at cache expiry.
func (h *APIKeyHandler) evictAuthCache(ctx context.Context, keyID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteAuthContextByKeyID(ctx, keyID); err != nil {
		h.logger.Warn("evict auth cache", "key_id", keyID, "error", err)
	}
}

// getOwnedKey loads a key and verifies ownership. Missing, foreign,
// and revoked keys all present as 404 to prevent enumeration.
func (h *APIKeyHandler) getOwnedKey(w http.ResponseWriter, ctx context.Context, keyID, userID string) (*model.APIKey, bool) {
	if keyID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Key ID is required")
		return nil, false
	}

	key, err := h.repo.GetAPIKeyByID(ctx, keyID)
	if err != nil || key.UserID != userID || key.IsRevoked() {
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
		return nil, false
	}
	return key, true
}
