package auth

import (
	"context"
	"errors"
	"strings"
)

const RoleBaker = "baker"

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Staff struct {
	ID    string
	Email string
	Hash  []byte
	Role  string
}

type StaffStore interface {
	Add(ctx context.Context, email, password, role string) (Staff, error)
	Verify(ctx context.Context, email, password string) (Staff, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
