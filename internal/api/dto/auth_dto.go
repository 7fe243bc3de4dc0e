package dto

import (
	"time"

	"github.com/stagepay/pos-core/internal/domain"
)

// UserLoginRequest payload for back-office login.
type UserLoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	RoleID   *int64 `json:"role_id,omitempty"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserRoleResponse describes a role.
type UserRoleResponse struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Privileges []domain.Privilege `json:"privileges"`
}

// CurrentUserResponse describes a user scoped to its active role.
type CurrentUserResponse struct {
	ID          int64              `json:"id"`
	Login       string             `json:"login"`
	DisplayName string             `json:"display_name"`
	Description *string            `json:"description,omitempty"`
	UserTagUID  *uint64            `json:"user_tag_uid,omitempty"`
	UserTagHex  string             `json:"user_tag_uid_hex,omitempty"`
	RoleID      int64              `json:"active_role_id"`
	RoleName    string             `json:"active_role_name"`
	Privileges  []domain.Privilege `json:"privileges"`
}

// NewCurrentUserResponse maps a user without its credentials.
func NewCurrentUserResponse(u *domain.CurrentUser) *CurrentUserResponse {
	if u == nil {
		return nil
	}
	privileges := u.Privileges
	if privileges == nil {
		privileges = []domain.Privilege{}
	}
	var tagHex string
	if u.UserTagUID != nil {
		tagHex = domain.FormatUserTagUID(*u.UserTagUID)
	}
	return &CurrentUserResponse{
		ID:          u.ID,
		Login:       u.Login,
		DisplayName: u.DisplayName,
		Description: u.Description,
		UserTagUID:  u.UserTagUID,
		UserTagHex:  tagHex,
		RoleID:      u.ActiveRoleID,
		RoleName:    u.ActiveRoleName,
		Privileges:  privileges,
	}
}

// NewUserRoleResponses maps roles.
func NewUserRoleResponses(roles []domain.UserRole) []UserRoleResponse {
	out := make([]UserRoleResponse, 0, len(roles))
	for _, r := range roles {
		privileges := r.Privileges
		if privileges == nil {
			privileges = []domain.Privilege{}
		}
		out = append(out, UserRoleResponse{ID: r.ID, Name: r.Name, Privileges: privileges})
	}
	return out
}
