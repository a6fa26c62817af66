// Package models holds the client's entities and the functions that
// normalize the booking API's loosely shaped payloads into them.
package models

import (
	"fmt"
	"strings"
)

// Role is the kind of account a session belongs to.
type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
)

// ParseRole accepts "user"/"patient" and "doctor"/"doc".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "patient":
		return RoleUser, nil
	case "doctor", "doc":
		return RoleDoctor, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleDoctor
}

// Session is the authenticated identity. Role never changes for a session.
type Session struct {
	ID    string
	Role  Role
	Email string
	Token string
}

// LocalIDPrefix marks an id made up locally because the server sent none.
const LocalIDPrefix = "local-"

// HasRemoteID reports whether the session id came from the server.
func (s *Session) HasRemoteID() bool {
	return s != nil && strings.TrimSpace(s.ID) != "" && !strings.HasPrefix(s.ID, LocalIDPrefix)
}

// HasToken reports whether the server issued a credential for this session.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}
