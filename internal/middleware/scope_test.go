package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/model"
)

func TestRequireScope_Authorized(t *testing.T) {
	testCases := []struct {
		name          string
		scopes        []string
		requiredScope string
		wantStatus    int
	}{
		{
			name:          "read scope allows read",
			scopes:        []string{model.ScopeRead},
			requiredScope: model.ScopeRead,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "write scope allows write",
			scopes:        []string{model.ScopeWrite},
			requiredScope: model.ScopeWrite,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "admin allows read",
			scopes:        []string{model.ScopeAdmin},
			requiredScope: model.ScopeRead,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "admin allows train_models",
			scopes:        []string{model.ScopeAdmin},
			requiredScope: model.ScopeTrainModels,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "admin allows manage_datasets",
			scopes:        []string{model.ScopeAdmin},
			requiredScope: model.ScopeManageDatasets,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "train_models allows training",
			scopes:        []string{model.ScopeRead, model.ScopeTrainModels},
			requiredScope: model.ScopeTrainModels,
			wantStatus:    http.StatusOK,
		},
		{
			name:          "multiple scopes work",
			scopes:        []string{model.ScopeRead, model.ScopeWrite},
			requiredScope: model.ScopeWrite,
			wantStatus:    http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			authCtx := &model.AuthContext{
				KeyID:     "key123",
				KeyPrefix: "abc123",
				UserID:    "user123",
				Scopes:    tc.scopes,
			}

			handler := RequireScope(tc.requiredScope)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			ctx := auth.ContextWithAuth(req.Context(), authCtx)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequireScope_Forbidden(t *testing.T) {
	testCases := []struct {
		name          string
		scopes        []string
		requiredScope string
	}{
		{
			name:          "read cannot access write",
			scopes:        []string{model.ScopeRead},
			requiredScope: model.ScopeWrite,
		},
		{
			name:          "read cannot access admin",
			scopes:        []string{model.ScopeRead},
			requiredScope: model.ScopeAdmin,
		},
		{
			name:          "write cannot access admin",
			scopes:        []string{model.ScopeWrite},
			requiredScope: model.ScopeAdmin,
		},
		{
			name:          "read+write cannot train models",
			scopes:        []string{model.ScopeRead, model.ScopeWrite},
			requiredScope: model.ScopeTrainModels,
		},
		{
			name:          "train_models cannot manage datasets",
			scopes:        []string{model.ScopeTrainModels},
			requiredScope: model.ScopeManageDatasets,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			authCtx := &model.AuthContext{
				KeyID:     "key123",
				KeyPrefix: "abc123",
				UserID:    "user123",
				Scopes:    tc.scopes,
			}

			handler := RequireScope(tc.requiredScope)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			ctx := auth.ContextWithAuth(req.Context(), authCtx)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
			}
		})
	}
}

func TestRequireScope_AnyOfMultiple(t *testing.T) {
	authCtx := &model.AuthContext{
		UserID: "user123",
		Scopes: []string{model.ScopeManageDatasets},
	}

	handler := RequireScope(model.ScopeTrainModels, model.ScopeManageDatasets)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireScope_NoAuthContext(t *testing.T) {
	handler := RequireScope(model.ScopeRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name       string
		role       string
		scopes     []string
		required   string
		wantStatus int
	}{
		{
			name:       "researcher passes researcher gate",
			role:       model.RoleResearcher,
			required:   model.RoleResearcher,
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin role passes any gate",
			role:       model.RoleAdmin,
			required:   model.RoleResearcher,
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin scope passes any gate",
			role:       model.RoleUser,
			scopes:     []string{model.ScopeAdmin},
			required:   model.RoleResearcher,
			wantStatus: http.StatusOK,
		},
		{
			name:       "plain user is rejected",
			role:       model.RoleUser,
			required:   model.RoleResearcher,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			authCtx := &model.AuthContext{
				UserID: "user123",
				Role:   tc.role,
				Scopes: tc.scopes,
			}

			handler := RequireRole(tc.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req = req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestConvenienceMiddleware(t *testing.T) {
	authCtx := &model.AuthContext{
		KeyID:     "key123",
		KeyPrefix: "abc123",
		UserID:    "user123",
		Scopes:    []string{model.ScopeAdmin},
	}

	testCases := []struct {
		name       string
		middleware func() func(http.Handler) http.Handler
	}{
		{"RequireRead", RequireRead},
		{"RequireWrite", RequireWrite},
		{"RequireAdmin", RequireAdmin},
		{"RequireTrainModels", RequireTrainModels},
		{"RequireManageDatasets", RequireManageDatasets},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := tc.middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			ctx := auth.ContextWithAuth(req.Context(), authCtx)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			// Admin should pass all
			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
		})
	}
}
