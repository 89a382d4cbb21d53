package domain

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID   string   `json:"userId"`
	RoleID   Role     `json:"roleId"`
	AuthType AuthType `json:"type"`
}

// HasRole reports whether the identity's role is in allowed. An empty list allows any role.
func (i *Identity) HasRole(allowed ...Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if i.RoleID == r {
			return true
		}
	}
	return false
}
