package models

import (
	"encoding/json"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NormalizeIdentity builds a Session from a login or signup response,
// whatever field names the server used.
//
//	ID    id, userId, _id, user.id, user._id, doctor.id, doctor._id
//	      -> "sub"/"id"/"userId" claim of the token -> generated placeholder
//	Token token, accessToken, user.token           -> "" (still authenticated)
//	Email email, user.email, doctor.email          -> submitted email
func NormalizeIdentity(raw json.RawMessage, role Role, submittedEmail string) (Session, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Session{}, errors.Join(ErrUnexpectedShape, err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return Session{}, ErrUnexpectedShape
	}
	user := asObject(m["user"])
	doctor := asObject(m["doctor"])

	token := firstString(m, "", "token", "accessToken")
	if token == "" {
		token = firstString(user, "", "token")
	}

	id := firstString(m, "", "id", "userId", "_id")
	if id == "" {
		id = firstString(user, "", "id", "_id")
	}
	if id == "" {
		id = firstString(doctor, "", "id", "_id")
	}
	if id == "" {
		id = SubjectFromToken(token)
	}
	if id == "" {
		id = LocalIDPrefix + uuid.NewString()
	}

	email := firstString(m, "", "email")
	if email == "" {
		email = firstString(user, "", "email")
	}
	if email == "" {
		email = firstString(doctor, submittedEmail, "email")
	}

	return Session{ID: id, Role: role, Email: email, Token: token}, nil
}

// SubjectFromToken reads the subject of a JWT without verifying it. The
// client never holds the signing key; the claim is only used as a display id.
func SubjectFromToken(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	return firstString(claims, "", "id", "userId", "_id")
}
