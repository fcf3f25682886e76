package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// Staff roles
const (
	RoleAdmin     = "admin:"
	RoleSecretary = "secretary:"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the identity provider of the school platform; this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	SchoolID string   `json:"school_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (c Claims) hasRolePrefix(prefix string) bool {
	for _, role := range c.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (c Claims) IsAdmin() bool { return c.hasRolePrefix(RoleAdmin) }
func (c Claims) IsStaff() bool { return c.IsAdmin() || c.hasRolePrefix(RoleSecretary) }

func (c Claims) Actor() core.Actor {
	return core.Actor{ID: c.Subject, Name: c.Name, Email: c.Email, SchoolID: c.SchoolID, Roles: c.Roles}
}

// NewClaims returns the claims of a token for actor, valid for ttl.
func NewClaims(actor core.Actor, issuer string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   actor.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     actor.Name,
		Email:    actor.Email,
		SchoolID: actor.SchoolID,
		Roles:    actor.Roles,
	}
}

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// ensureSchoolAccess allows admins everywhere and other staff at their own school only.
func ensureSchoolAccess(ctx echo.Context, schoolID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsAdmin() || (claims.SchoolID != "" && claims.SchoolID == schoolID) {
		return nil
	}
	return errHttpForbidden
}
