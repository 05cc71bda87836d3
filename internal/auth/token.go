// Package auth issues and verifies the service's bearer tokens. Identity is
// resolved here, once, into a tagged union; downstream code switches on the
// concrete type instead of inspecting claim fields.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is either a StudentIdentity or an AdminIdentity.
type Identity interface {
	isIdentity()
}

// StudentIdentity is a logged-in student.
type StudentIdentity struct {
	UserID   string
	Username string
}

// AdminIdentity is a logged-in admin.
type AdminIdentity struct {
	AdminID string
	Email   string
}

func (StudentIdentity) isIdentity() {}
func (AdminIdentity) isIdentity()   {}

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	roleStudent = "student"
	roleAdmin   = "admin"
)

// Manager signs and parses HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueStudent returns a signed token for a student account.
func (m *Manager) IssueStudent(userID, username string) (string, error) {
	return m.sign(claims{
		Role:     roleStudent,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
	})
}

// IssueAdmin returns a signed token for an admin account.
func (m *Manager) IssueAdmin(adminID, email string) (string, error) {
	return m.sign(claims{
		Role:  roleAdmin,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
	})
}

func (m *Manager) sign(c claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

// Parse verifies the token and resolves its identity.
func (m *Manager) Parse(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	switch c.Role {
	case roleStudent:
		return StudentIdentity{UserID: c.Subject, Username: c.Username}, nil
	case roleAdmin:
		return AdminIdentity{AdminID: c.Subject, Email: c.Email}, nil
	default:
		return nil, ErrInvalidToken
	}
}
