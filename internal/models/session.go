package models

// Session is the server-side identity payload stored against an opaque
// session id. While an admin is impersonating another user the current
// identity fields hold the target and AdminID keeps the original admin's
// id so the swap can be undone; AdminID is zero for a plain session.
type Session struct {
	UserID             int64    `json:"userId"`
	UserHandle         string   `json:"userHandle"`
	LoginID            string   `json:"loginId"`
	Name               string   `json:"name"`
	Role               UserRole `json:"role"`
	MustChangePassword bool     `json:"mustChangePassword"`
	IsImpersonated     bool     `json:"isImpersonated"`
	AdminID            int64    `json:"adminId,omitempty"`
}

// NewSession builds a plain session payload from a user row.
func NewSession(u User) Session {
	return Session{
		UserID:             u.ID,
		UserHandle:         u.UserHandle,
		LoginID:            u.LoginID,
		Name:               u.Name,
		Role:               u.Role,
		MustChangePassword: u.MustChangePassword,
	}
}

func (s Session) Impersonating() bool {
	return s.AdminID != 0
}
