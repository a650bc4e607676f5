package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"english-mcq-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session claims issued by the sign-in provider.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// UserResolver turns a verified identity into a user row.
type UserResolver interface {
	ResolveUser(ctx context.Context, identity domain.Identity) (domain.User, error)
}

// Authenticator verifies HS256 session tokens.
type Authenticator struct {
	secret         []byte
	issuer         string
	allowDevHeader bool
}

func NewAuthenticator(secret, issuer string, allowDevHeader bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, allowDevHeader: allowDevHeader}
}

// IssueToken signs a session token; used by tooling and tests.
func (a *Authenticator) IssueToken(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(tokenStr string) (domain.Identity, error) {
	if len(a.secret) == 0 {
		return domain.Identity{}, errors.New("jwt secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, errors.New("invalid token")
	}
	return domain.Identity{Email: claims.Email, Name: claims.Name, Avatar: claims.Picture}, nil
}

// identity extracts the caller from the Authorization header, the
// access_token query parameter (websockets) or, in development, X-User-Email.
func (a *Authenticator) identity(r *http.Request) (domain.Identity, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return a.Parse(strings.TrimPrefix(h, "Bearer "))
	}
	if tok := r.URL.Query().Get("access_token"); tok != "" {
		return a.Parse(tok)
	}
	if a.allowDevHeader {
		if email := r.Header.Get("X-User-Email"); email != "" {
			return domain.Identity{Email: email, Name: r.Header.Get("X-User-Name")}, nil
		}
	}
	return domain.Identity{}, domain.ErrUnauthorized
}

type userKey struct{}

// Middleware rejects unauthenticated requests and stores the resolved user in the request context.
func (a *Authenticator) Middleware(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.identity(r)
			if err != nil {
				writeError(w, r, domain.ErrUnauthorized)
				return
			}
			user, err := users.ResolveUser(r.Context(), identity)
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}

// UserFrom returns the authenticated user stored by Middleware.
func UserFrom(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}
