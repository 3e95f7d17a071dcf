package serverutils

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// JwtMiddleware accepts HS256 tokens signed with JWT_SECRET and stores the
// user_id claim in ctx.Locals("user_id")
func JwtMiddleware(ctx *fiber.Ctx) error {
	userId, err := ParseUserToken(BearerToken(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, UnauthorizedMessage(err)))
	}

	ctx.Locals("user_id", userId)
	return ctx.Next()
}

// BearerToken extracts the token from the Authorization header, or ""
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, bearerPrefix)
}

// ParseUserToken validates tokenStr and returns its user_id claim
func ParseUserToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidClaims
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return "", ErrInvalidClaims
	}
	return userId, nil
}

// UnauthorizedMessage maps a ParseUserToken error to the client-facing text
func UnauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Missing token"
	case errors.Is(err, ErrInvalidClaims):
		return "Invalid claims"
	default:
		return "Invalid token"
	}
}
