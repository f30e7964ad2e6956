// Package auth resolves configured users to roles for the HTTP boundary.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fieldlog/internal/core"
)

// DefaultUsers is used when no user list is configured.
const DefaultUsers = "Dsx:Dsx123:operator,Leonardo:Leonardo123:manager"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing credentials")
)

// User is one configured login.
type User struct {
	Name     string
	Password string
	Role     core.Role
}

// ParseUsers reads a comma separated list of name:password:role entries.
func ParseUsers(raw string) ([]User, error) {
	var users []User
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("user entry %q: expected name:password:role", entry)
		}
		name := strings.TrimSpace(parts[0])
		if name == "" || parts[1] == "" {
			return nil, fmt.Errorf("user entry %q: name and password are required", entry)
		}
		role, err := core.ParseRole(parts[2])
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", name, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("user %q listed twice", name)
		}
		seen[name] = true
		users = append(users, User{Name: name, Password: parts[1], Role: role})
	}
	if len(users) == 0 {
		return nil, errors.New("no users configured")
	}
	return users, nil
}

// Authenticator checks name/password pairs against the configured users.
type Authenticator struct {
	users map[string]User
}

func NewAuthenticator(users []User) *Authenticator {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.Name] = u
	}
	return &Authenticator{users: m}
}

// Check returns the user's role when the password matches.
func (a *Authenticator) Check(name, password string) (core.Role, error) {
	u, ok := a.users[name]
	if !ok {
		// uniform timing for unknown names
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(u.Password)) != 1 {
		return "", ErrInvalidCredentials
	}
	return u.Role, nil
}

// Names returns the configured user names, sorted.
func (a *Authenticator) Names() []string {
	out := make([]string, 0, len(a.users))
	for name := range a.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
