package token

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Identity token errors. Both mean the request is rejected before the tenant
// store is ever consulted.
var (
	ErrTokenInvalid = errors.New("token: invalid token")
	ErrTokenExpired = errors.New("token: token expired")
)

// Claims is the identity token payload: enough to route a request to its
// tenant store without another lookup for the database name.
type Claims struct {
	TenantName   string `json:"tenant_name"`
	DatabaseName string `json:"db_name"`
	jwt.RegisteredClaims
}

// TenantID returns the subject claim.
func (c *Claims) TenantID() string {
	return c.Subject
}

var (
	secretOnce sync.Once
	jwtSecret  []byte
	secretErr  error
)

func loadSecret() error {
	secretOnce.Do(func() {
		// Prefer JWT_SECRET_KEY, fallback to JWT_SECRET
		sec := os.Getenv("JWT_SECRET_KEY")
		if strings.TrimSpace(sec) == "" {
			sec = os.Getenv("JWT_SECRET")
		}
		if strings.TrimSpace(sec) == "" {
			secretErr = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
			return
		}
		jwtSecret = []byte(sec)
	})
	return secretErr
}

// Generate signs a new HS256 identity token for the tenant, expiring in 24h.
func Generate(tenantID, tenantName, databaseName string) (string, error) {
	if err := loadSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		TenantName:   tenantName,
		DatabaseName: databaseName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID,
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(jwtSecret)
}

// Parse verifies signature and expiry and returns the embedded claims.
// Expired tokens report ErrTokenExpired; everything else ErrTokenInvalid.
func Parse(raw string) (*Claims, error) {
	if err := loadSecret(); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	t, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !t.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.DatabaseName) == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
