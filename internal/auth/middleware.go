package auth

import (
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware authenticates requests with HTTP Basic credentials or a bearer
// token issued by IssueToken.
type Middleware struct {
	Auth    *Authenticator
	Tokens  TokenConfig
	Skipper Skipper
	Realm   string
}

func NewMiddleware(a *Authenticator, tokens TokenConfig, skipper Skipper) Middleware {
	return Middleware{Auth: a, Tokens: tokens, Skipper: skipper, Realm: "fieldlog"}
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		p, err := m.parseRequest(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+m.Realm+`"`)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingCredentials
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		if !m.Tokens.Enabled() {
			return nil, ErrInvalidToken
		}
		return ParseToken(header[len("Bearer "):], m.Tokens)
	}
	name, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	role, err := m.Auth.Check(name, password)
	if err != nil {
		return nil, err
	}
	return &Principal{User: name, Role: role}, nil
}

// RequireManager rejects callers whose role cannot write.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, ErrMissingCredentials.Error(), http.StatusUnauthorized)
			return
		}
		if !p.Role.CanWrite() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
