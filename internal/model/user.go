// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Platform roles.
const (
	RoleAdmin             = "admin"
	RoleUser              = "user"
	RoleResearcher        = "researcher"
	RoleLegalProfessional = "legal_professional"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleUser, RoleResearcher, RoleLegalProfessional}

// Account lifecycle states.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

// ValidStatuses contains all valid account statuses.
var ValidStatuses = []string{StatusActive, StatusInactive, StatusSuspended, StatusPending}

// User represents a platform account.
type User struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	Username        string         `json:"username"`
	FullName        string         `json:"full_name,omitempty"`
	PasswordHash    string         `json:"-"` // Never serialize
	Role            string         `json:"role"`
	Status          string         `json:"status"`
	Organization    string         `json:"organization,omitempty"`
	Preferences     map[string]any `json:"preferences,omitempty"`
	LastLoginAt     *time.Time     `json:"last_login_at,omitempty"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsActive returns true if the account can authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Scopes expands the user's role into its granted scopes.
func (u *User) Scopes() []string {
	scopes := []string{ScopeRead, ScopeWrite}
	switch u.Role {
	case RoleAdmin:
		scopes = append(scopes, ScopeAdmin, ScopeManageUsers)
	case RoleResearcher:
		scopes = append(scopes, ScopeTrainModels, ScopeManageDatasets)
	case RoleLegalProfessional:
		scopes = append(scopes, ScopeLegalAccess, ScopeBatchProcessing)
	}
	return scopes
}

// HasRole checks whether the user holds one of the given roles.
func (u *User) HasRole(roles ...string) bool {
	return slices.Contains(roles, u.Role)
}

// DefaultPreferences returns the preference blob for new accounts.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"language":      "en",
		"theme":         "light",
		"notifications": true,
		"default_model": ModelTypeBART,
	}
}

// UserResponse is the public view of a user (no credentials).
type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	FullName     string     `json:"full_name,omitempty"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	Organization string     `json:"organization,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToResponse converts a User to its public representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FullName:     u.FullName,
		Role:         u.Role,
		Status:       u.Status,
		Organization: u.Organization,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
