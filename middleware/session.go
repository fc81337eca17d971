package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// JWT_SECRET may arrive via the real environment or the .env file
// loaded at startup, so the key is read on first use rather than at
// package init.
var (
	jwtKeyOnce sync.Once
	jwtKey     []byte
)

func signingKey() []byte {
	jwtKeyOnce.Do(func() {
		jwtKey = []byte(os.Getenv("JWT_SECRET"))
	})
	return jwtKey
}

// FarmClaims is the session payload. The original dashboard kept the
// farm identifier in a bare cookie string; here the identity is a
// signed token and handlers get a typed session or a 401, never an
// empty farm id.
type FarmClaims struct {
	FarmID   string `json:"farmId"`
	FarmSlug string `json:"farmSlug"`
	Owner    string `json:"owner"`
	jwt.RegisteredClaims
}

// unexported type prevents collisions in context
type ctxKey int

const farmSessionKey ctxKey = iota

// FarmSession is the resolved identity attached to every scoped request.
type FarmSession struct {
	FarmID   uuid.UUID
	FarmSlug string
	Owner    string
}

// GenerateToken creates a signed farm-session JWT valid for 24 h.
func GenerateToken(farmID uuid.UUID, slug, owner string) (string, error) {
	claims := FarmClaims{
		FarmID:   farmID.String(),
		FarmSlug: slug,
		Owner:    owner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

// SessionMiddleware validates the token and stashes the FarmSession in
// ctx. Requests without a valid token never reach the handler.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid auth header", http.StatusUnauthorized)
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &FarmClaims{}, func(t *jwt.Token) (interface{}, error) {
			return signingKey(), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(*FarmClaims)
		if !ok {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}
		farmID, err := uuid.Parse(claims.FarmID)
		if err != nil {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		session := &FarmSession{FarmID: farmID, FarmSlug: claims.FarmSlug, Owner: claims.Owner}
		ctx := context.WithValue(r.Context(), farmSessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireFarmScope ensures the {slug} route variable matches the
// session's farm, so one tenant's token cannot read another's rows.
func RequireFarmScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetFarmSession(r)
		if session == nil {
			http.Error(w, "no farm session", http.StatusUnauthorized)
			return
		}
		if slug := mux.Vars(r)["slug"]; slug != "" && slug != session.FarmSlug {
			http.Error(w, "farm scope mismatch", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetFarmSession returns the session from ctx, nil when absent.
func GetFarmSession(r *http.Request) *FarmSession {
	session, _ := r.Context().Value(farmSessionKey).(*FarmSession)
	return session
}

// WithFarmSession is used by tests to build pre-authenticated requests.
func WithFarmSession(r *http.Request, session *FarmSession) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), farmSessionKey, session))
}
