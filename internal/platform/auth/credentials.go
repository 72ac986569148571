package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The three fixed front-desk roles. Usernames double as role names.
const (
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
	RolePharmacist   = "pharmacist"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// User is an account row from the users table.
type User struct {
	Username     string
	PasswordHash string
	Role         string
}

// CredentialStore verifies login credentials.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

// HashPassword returns the hex-encoded SHA-256 digest used for stored
// passwords.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// PGCredentialStore reads accounts from the users table.
type PGCredentialStore struct {
	pool *pgxpool.Pool
}

func NewPGCredentialStore(pool *pgxpool.Pool) *PGCredentialStore {
	return &PGCredentialStore{pool: pool}
}

// Authenticate looks up the account and compares password digests. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *PGCredentialStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT username, password_hash, role FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", username, err)
	}

	if subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(HashPassword(password))) != 1 {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
