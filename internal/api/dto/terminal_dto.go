package dto

import "github.com/stagepay/pos-core/internal/domain"

// TerminalRegisterRequest payload for binding a terminal to a till.
type TerminalRegisterRequest struct {
	RegistrationUUID string `json:"registration_uuid"`
}

// TillUserRequest identifies a user by the tag scanned at the terminal.
type TillUserRequest struct {
	UserTagUID uint64 `json:"user_tag_uid"`
	RoleID     int64  `json:"user_role_id"`
}

// PrivilegeCheckRequest lists privileges of which one is needed.
type PrivilegeCheckRequest struct {
	Privileges []domain.Privilege `json:"privileges"`
}

// TillResponse describes a till.
type TillResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	Registered       bool    `json:"registered"`
	ActiveProfileID  int64   `json:"active_profile_id"`
	ActiveUserID     *int64  `json:"active_user_id"`
	ActiveUserRoleID *int64  `json:"active_user_role_id"`
}

// NewTillResponse maps a till without its registration secrets.
func NewTillResponse(t domain.Till) TillResponse {
	return TillResponse{
		ID:               t.ID,
		Name:             t.Name,
		Description:      t.Description,
		Registered:       t.SessionUUID != nil,
		ActiveProfileID:  t.ActiveProfileID,
		ActiveUserID:     t.ActiveUserID,
		ActiveUserRoleID: t.ActiveUserRoleID,
	}
}
