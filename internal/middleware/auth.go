// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"echoverse/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "echoverse"
	TokenAudience = "echoverse-api"
	TokenTTL      = 72 * time.Hour

	wsTicketTTL       = 30 * time.Second
	wsTicketKeyPrefix = "ws_ticket:"
	blacklistPrefix   = "jwt_blacklist:"
)

// Auth validates access tokens and websocket tickets. The Redis client backs
// the jti blacklist and single-use ws tickets; with a nil client both degrade
// to plain token validation.
type Auth struct {
	secret []byte
	rdb    *redis.Client
}

// NewAuth builds the auth middleware from app config and an optional Redis client.
func NewAuth(cfg *config.Config, rdb *redis.Client) *Auth {
	return &Auth{
		secret: []byte(cfg.JWTSecret),
		rdb:    rdb,
	}
}

// GenerateToken mints a signed access token for the user.
func (a *Auth) GenerateToken(userID uint, username string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// TokenClaims is the validated subset of claims handlers care about.
type TokenClaims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// ParseToken validates the signature, issuer, audience, and expiry of a
// token and rejects blacklisted jtis.
func (a *Auth) ParseToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithAudience(TokenAudience))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("missing token subject")
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return nil, errors.New("invalid user ID in token")
	}

	out := &TokenClaims{UserID: uint(userID)}
	if username, ok := claims["username"].(string); ok {
		out.Username = username
	}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	if out.JTI != "" && a.isBlacklisted(ctx, out.JTI) {
		return nil, errors.New("token has been revoked")
	}

	return out, nil
}

// BlacklistToken marks a jti revoked until the token's own expiry.
func (a *Auth) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if a.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func (a *Auth) isBlacklisted(ctx context.Context, jti string) bool {
	if a.rdb == nil {
		return false
	}
	n, err := a.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	return err == nil && n > 0
}

// MintWSTicket creates a single-use short-lived ticket for websocket upgrades.
func (a *Auth) MintWSTicket(ctx context.Context, userID uint) (string, error) {
	if a.rdb == nil {
		return "", errors.New("websocket tickets require Redis")
	}
	ticket := uuid.NewString()
	key := wsTicketKeyPrefix + ticket
	if err := a.rdb.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// ConsumeWSTicket resolves and atomically deletes a ws ticket.
func (a *Auth) ConsumeWSTicket(ctx context.Context, ticket string) (uint, error) {
	if a.rdb == nil || ticket == "" {
		return 0, errors.New("invalid ticket")
	}
	val, err := a.rdb.GetDel(ctx, wsTicketKeyPrefix+ticket).Result()
	if err != nil {
		return 0, errors.New("invalid or expired ticket")
	}
	userID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, errors.New("invalid ticket payload")
	}
	return uint(userID), nil
}

// Required enforces authentication on protected routes.
func (a *Auth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		claims, err := a.ParseToken(c.Context(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
		return c.Next()
	}
}

// WebSocketAuthRequired authenticates websocket upgrades. It accepts a
// single-use ticket in the `ticket` query parameter, and falls back to a
// bearer token for clients that can set headers.
func (a *Auth) WebSocketAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ticket := c.Query("ticket"); ticket != "" {
			userID, err := a.ConsumeWSTicket(c.Context(), ticket)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			c.Locals("userID", userID)
			return c.Next()
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Ticket or token required",
			})
		}
		claims, err := a.ParseToken(c.Context(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("userID", claims.UserID)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization header format")
	}
	return parts[1], nil
}
