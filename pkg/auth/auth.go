package authentication

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Role is what an authenticated caller may do. Admin implies Reader.
type Role int

const (
	RoleNone Role = iota
	RoleReader
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

type IBasicAuthService interface {
	// Authenticate returns the caller's role, RoleNone for bad credentials
	Authenticate(username, password string) Role
	DecodeFromHeader(auth string) (string, string, bool)
}

type BasicAuthTConfig struct {
	ReaderUsername string

	ReaderPassword string

	AdminUsername string

	AdminPassword string
}

type basicAuth struct {
	readerUsername string
	readerPassword string
	adminUsername  string
	adminPassword  string
}

func NewBasicAuthService(config *BasicAuthTConfig) IBasicAuthService {
	return &basicAuth{
		readerUsername: config.ReaderUsername,
		readerPassword: config.ReaderPassword,
		adminUsername:  config.AdminUsername,
		adminPassword:  config.AdminPassword,
	}
}

func (b *basicAuth) Authenticate(username, password string) Role {
	if username == "" {
		return RoleNone
	}
	if matches(username, b.adminUsername) && matches(password, b.adminPassword) {
		return RoleAdmin
	}
	if matches(username, b.readerUsername) && matches(password, b.readerPassword) {
		return RoleReader
	}
	return RoleNone
}

// DecodeFromHeader parses an "Authorization: Basic ..." value.
func (b *basicAuth) DecodeFromHeader(auth string) (string, string, bool) {
	encoded, found := strings.CutPrefix(auth, "Basic ")
	if !found {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}
	return username, password, true
}

func matches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
