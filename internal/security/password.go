package security

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultAdminPassword is accepted when no ADMIN_PASSWORD_HASH is configured
const defaultAdminPassword = "equipeeps"

// AdminCredentials checks the single administrator login
type AdminCredentials struct {
	username string
	hash     []byte
}

// NewAdminCredentials builds the checker. An empty passwordHash hashes the built-in password.
func NewAdminCredentials(username, passwordHash string) (*AdminCredentials, error) {
	hash := []byte(passwordHash)
	if passwordHash == "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash default password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}
	return &AdminCredentials{username: username, hash: hash}, nil
}

// Check reports whether username and password match the administrator login
func (c *AdminCredentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	return userOK && passOK
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
