package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

var (
	errMissingAuthorization = errors.New("authorization header missing")
	errMalformedBearer      = errors.New("invalid authorization header")
)

// JWTProtected validates HMAC bearer tokens issued by the daily challenge
// backend. The caller identity lands in locals and the raw token in the user
// context, so upstream calls run with the teacher's or student's own rights.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		setCaller(c, callerFromClaims(claims))
		c.SetUserContext(ContextWithBearerToken(c.UserContext(), raw))
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// callerFromClaims accepts both the backend's Spring style claims (numeric
// sub, roles array of ROLE_*) and plain string claims.
func callerFromClaims(claims jwt.MapClaims) Caller {
	var caller Caller
	for _, key := range []string{"sub", "user_id", "userId", "id"} {
		if id := claimID(claims[key]); id != "" {
			caller.ID = id
			break
		}
	}
	for _, key := range []string{"role", "roles", "authorities", "scope"} {
		if role := claimRole(claims[key]); role != "" {
			caller.Role = role
			break
		}
	}
	return caller
}

func claimID(value interface{}) string {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return ""
		}
		return strconv.FormatInt(int64(v), 10)
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

func claimRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return canonicalRole(v)
	case []interface{}:
		for _, item := range v {
			if role := claimRole(item); role != "" {
				return role
			}
		}
	}
	return ""
}
