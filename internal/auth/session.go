// Package auth carries the signed-in user as an explicit value.
// Enforcement belongs to the backend; this package only describes who is acting.
package auth

import "fmt"

// Role is one of the dashboard roles known to the backend.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleOfficer     Role = "officer"
	RoleInterviewer Role = "interviewer"
	RoleStudent     Role = "student"
)

// ParseRole converts a config string into a Role. Empty means student.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleStudent, nil
	case RoleAdmin, RoleOfficer, RoleInterviewer, RoleStudent:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is the authenticated principal.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Session is either anonymous or bound to one user.
// The zero value is anonymous.
type Session struct {
	user  *User
	token string
}

// Anonymous returns a session with no user and no token.
func Anonymous() Session {
	return Session{}
}

// NewSession binds a user and bearer token.
func NewSession(u User, token string) Session {
	return Session{user: &u, token: token}
}

// User returns the current user, or false when the session is anonymous.
func (s Session) User() (User, bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, possibly empty.
func (s Session) Token() string {
	return s.token
}

// OwnerKey names the owner of drafts and backups: the user id, falling back
// to the user name, then "anonymous".
func (s Session) OwnerKey() string {
	if s.user == nil {
		return "anonymous"
	}
	if s.user.ID != "" {
		return s.user.ID
	}
	if s.user.Name != "" {
		return s.user.Name
	}
	return "anonymous"
}

// FromConfig builds a session from flat config values. No user id and no
// name yields an anonymous session that may still carry a token.
func FromConfig(id, name, email, role, token string) (Session, error) {
	if id == "" && name == "" {
		return Session{token: token}, nil
	}
	r, err := ParseRole(role)
	if err != nil {
		return Session{}, err
	}
	return NewSession(User{ID: id, Name: name, Email: email, Role: r}, token), nil
}
