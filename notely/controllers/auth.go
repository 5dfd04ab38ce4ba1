// notely/controllers/auth.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notely/notely/config"
	"notely/notely/sources/psql/dao"
	"notely/notely/types"
	"notely/notely/utils/logging"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const sessionIssuer = "notely"

// IdentityCache remembers email -> user id. Implementations may fail; the
// resolver falls back to the database.
type IdentityCache interface {
	UserID(ctx context.Context, email string) (int, bool, error)
	SetUserID(ctx context.Context, email string, id int) error
}

// SessionClaims is the payload of the session JWT.
type SessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type AuthController struct {
	userDAO *dao.UserDAO
	cache   IdentityCache
	cfg     config.Config
	now     func() time.Time
}

// NewAuthController builds the identity resolver. cache may be nil.
func NewAuthController(userDAO *dao.UserDAO, cache IdentityCache, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		cache:   cache,
		cfg:     cfg,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ResolveOrCreateUser returns the id for email, creating the user on first
// sign-in. Name and avatar of an existing user are left untouched.
func (c *AuthController) ResolveOrCreateUser(ctx context.Context, email, name, avatarURL string) (int, error) {
	defer logging.LogDuration(ctx, "auth.ResolveOrCreateUser")()

	email = normalizeEmail(email)
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := c.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user == nil {
		created, err := c.userDAO.InsertIfAbsent(ctx, email, optional(name), optional(avatarURL))
		if err != nil {
			return 0, err
		}
		if created {
			logging.AppLogger.Info("new user created", zap.String("email", email))
		}
		user, err = c.userDAO.GetUserByEmail(ctx, email)
		if err != nil {
			return 0, err
		}
		if user == nil {
			return 0, fmt.Errorf("user %s vanished after insert", email)
		}
	}
	c.remember(ctx, email, user.ID)
	return user.ID, nil
}

// LookupUserID never creates a user.
func (c *AuthController) LookupUserID(ctx context.Context, email string) (int, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return 0, false, nil
	}
	if c.cache != nil {
		id, ok, err := c.cache.UserID(ctx, email)
		if err != nil {
			logging.ErrorLogger.Warn("identity cache read failed", zap.String("email", email), zap.Error(err))
		} else if ok {
			return id, true, nil
		}
	}
	user, err := c.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, false, err
	}
	if user == nil {
		return 0, false, nil
	}
	c.remember(ctx, email, user.ID)
	return user.ID, true, nil
}

func (c *AuthController) remember(ctx context.Context, email string, id int) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetUserID(ctx, email, id); err != nil {
		logging.ErrorLogger.Warn("identity cache write failed", zap.String("email", email), zap.Error(err))
	}
}

// SignIn resolves the provider profile to a user and mints a session token.
func (c *AuthController) SignIn(ctx context.Context, profile types.Profile) (string, error) {
	if _, err := c.ResolveOrCreateUser(ctx, profile.Email, profile.Name, profile.Picture); err != nil {
		return "", err
	}
	return c.IssueSession(profile)
}

func (c *AuthController) IssueSession(profile types.Profile) (string, error) {
	if c.cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := c.now()
	claims := SessionClaims{
		Email:   normalizeEmail(profile.Email),
		Name:    profile.Name,
		Picture: profile.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.JWTSecret))
}

func (c *AuthController) ParseSession(tokenStr string) (*SessionClaims, error) {
	if c.cfg.JWTSecret == "" || tokenStr == "" {
		return nil, ErrUnauthorized
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(c.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// Authenticate turns a session token into the caller's identity. Unknown
// emails are rejected; no user is created here.
func (c *AuthController) Authenticate(ctx context.Context, tokenStr string) (types.Identity, error) {
	claims, err := c.ParseSession(tokenStr)
	if err != nil {
		return types.Identity{}, err
	}
	id, ok, err := c.LookupUserID(ctx, claims.Email)
	if err != nil {
		return types.Identity{}, err
	}
	if !ok {
		return types.Identity{}, fmt.Errorf("%w: unknown user %s", ErrUnauthorized, claims.Email)
	}
	return types.Identity{UserID: id, Email: normalizeEmail(claims.Email), Name: claims.Name}, nil
}
