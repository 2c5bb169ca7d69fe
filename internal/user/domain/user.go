package domain

import "time"

// User is the core user entity. Key is assigned by the store on creation and
// is zero before persistence. PasswordHash is the opaque hasher output, never
// the plaintext.
type User struct {
	Key          int64
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	LastLogin    *time.Time // nil when the user has never logged in
	Permissions  []Permission
}

// Permission names a capability that can be granted to users.
type Permission struct {
	Key     int64
	Name    string
	Enabled bool
}

// HasPermission reports whether the user carries an enabled permission with
// the given name.
func (u *User) HasPermission(name string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p.Name == name && p.Enabled {
			return true
		}
	}
	return false
}
