package dto

import "github.com/lexicognize/lexicognize/internal/model"

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FullName     string `json:"full_name,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// LoginRequest represents the request body for login.
// Login accepts a username or an email.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse bundles the account and its session tokens.
type LoginResponse struct {
	User   model.UserResponse `json:"user"`
	Tokens *model.TokenPair   `json:"tokens"`
}

// UpdateProfileRequest represents the request body for profile updates.
type UpdateProfileRequest struct {
	FullName     *string        `json:"full_name,omitempty"`
	Organization *string        `json:"organization,omitempty"`
	Preferences  map[string]any `json:"preferences,omitempty"`
}

// ChangePasswordRequest represents the request body for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest asks for a reset token by email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest redeems an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// SetRoleRequest represents the admin request to change a user role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// SetStatusRequest represents the admin request to change account status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// UserListResponse represents a paginated list of users.
type UserListResponse struct {
	Data       []model.UserResponse `json:"data"`
	Pagination *Pagination          `json:"pagination"`
}

// ToUserListResponse converts users to the paginated response.
func ToUserListResponse(users []*model.User, nextCursor string) *UserListResponse {
	responses := make([]model.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return &UserListResponse{Data: responses, Pagination: NewPagination(nextCursor)}
}
