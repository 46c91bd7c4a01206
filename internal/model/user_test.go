package model

import (
	"slices"
	"testing"
)

func TestUser_Scopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		role    string
		want    []string
		notWant []string
	}{
		{
			name:    "plain user gets read and write",
			role:    RoleUser,
			want:    []string{ScopeRead, ScopeWrite},
			notWant: []string{ScopeAdmin, ScopeTrainModels},
		},
		{
			name:    "admin gets admin and manage_users",
			role:    RoleAdmin,
			want:    []string{ScopeRead, ScopeWrite, ScopeAdmin, ScopeManageUsers},
			notWant: nil,
		},
		{
			name:    "researcher can train and manage datasets",
			role:    RoleResearcher,
			want:    []string{ScopeRead, ScopeWrite, ScopeTrainModels, ScopeManageDatasets},
			notWant: []string{ScopeAdmin},
		},
		{
			name:    "legal professional gets legal scopes",
			role:    RoleLegalProfessional,
			want:    []string{ScopeRead, ScopeWrite, ScopeLegalAccess, ScopeBatchProcessing},
			notWant: []string{ScopeAdmin, ScopeTrainModels},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := &User{Role: tt.role}
			scopes := u.Scopes()

			for _, want := range tt.want {
				if !slices.Contains(scopes, want) {
					t.Errorf("Scopes() for %s missing %s", tt.role, want)
				}
			}
			for _, notWant := range tt.notWant {
				if slices.Contains(scopes, notWant) {
					t.Errorf("Scopes() for %s should not include %s", tt.role, notWant)
				}
			}
		})
	}
}

func TestUser_IsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   bool
	}{
		{StatusActive, true},
		{StatusInactive, false},
		{StatusSuspended, false},
		{StatusPending, false},
	}

	for _, tt := range tests {
		u := &User{Status: tt.status}
		if got := u.IsActive(); got != tt.want {
			t.Errorf("IsActive() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestUser_HasRole(t *testing.T) {
	t.Parallel()

	u := &User{Role: RoleResearcher}
	if !u.HasRole(RoleResearcher) {
		t.Error("expected researcher to have researcher role")
	}
	if !u.HasRole(RoleAdmin, RoleResearcher) {
		t.Error("expected match against role list")
	}
	if u.HasRole(RoleAdmin) {
		t.Error("researcher should not have admin role")
	}
}

func TestUser_ToResponse_OmitsCredentials(t *testing.T) {
	t.Parallel()

	u := &User{
		ID:           "user-1",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$argon2id$...",
		Role:         RoleUser,
		Status:       StatusActive,
	}

	resp := u.ToResponse()
	if resp.ID != u.ID {
		t.Errorf("ID = %s, want %s", resp.ID, u.ID)
	}
	if resp.Email != u.Email {
		t.Errorf("Email = %s, want %s", resp.Email, u.Email)
	}
	if resp.Role != RoleUser {
		t.Errorf("Role = %s, want %s", resp.Role, RoleUser)
	}
}

func TestDefaultPreferences(t *testing.T) {
	t.Parallel()

	prefs := DefaultPreferences()
	if prefs["language"] != "en" {
		t.Errorf("language = %v, want en", prefs["language"])
	}
	if prefs["default_model"] != ModelTypeBART {
		t.Errorf("default_model = %v, want %s", prefs["default_model"], ModelTypeBART)
	}
}
