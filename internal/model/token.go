package model

import "github.com/google/uuid"

// Claims are the identity claims carried by a bearer token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// TokenManager signs and verifies bearer tokens carrying identity claims.
type TokenManager interface {
	Generate(claims Claims) (string, error)
	Parse(token string) (Claims, error)
}
