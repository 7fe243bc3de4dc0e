package domain

// Till is the server-side state of a point-of-sale device. At most one user
// is logged in at a time, under exactly one role.
type Till struct {
	ID               int64
	Name             string
	Description      *string
	RegistrationUUID *string
	SessionUUID      *string
	ActiveProfileID  int64
	ActiveUserID     *int64
	ActiveUserRoleID *int64
}

// HasActiveUser reports whether a user and role are logged in.
func (t *Till) HasActiveUser() bool {
	return t != nil && t.ActiveUserID != nil && t.ActiveUserRoleID != nil
}

// Terminal is the principal resolved from a terminal token.
type Terminal struct {
	Till Till
}
