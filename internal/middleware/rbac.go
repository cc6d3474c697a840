package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// Roles recognised by the gateway.
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// Caller is the authenticated identity of a request.
type Caller struct {
	ID   string
	Role string
}

// Authenticated reports whether the JWT middleware identified the caller.
func (c Caller) Authenticated() bool {
	return c.ID != ""
}

// CanGrade reports whether the caller may author and grade challenges.
func (c Caller) CanGrade() bool {
	return c.Role == RoleTeacher || c.Role == RoleAdmin
}

// CallerFrom reads the identity stored by JWTProtected.
func CallerFrom(c *fiber.Ctx) Caller {
	id, _ := c.Locals(localUserID).(string)
	role, _ := c.Locals(localUserRole).(string)
	return Caller{ID: strings.TrimSpace(id), Role: canonicalRole(role)}
}

func setCaller(c *fiber.Ctx, caller Caller) {
	if caller.ID != "" {
		c.Locals(localUserID, caller.ID)
	}
	if caller.Role != "" {
		c.Locals(localUserRole, caller.Role)
	}
}

// RequireRole lets through callers holding one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := canonicalRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		caller := CallerFrom(c)
		if !caller.Authenticated() {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if _, ok := allowed[caller.Role]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "only teachers can manage daily challenges", nil)
		}
		return c.Next()
	}
}

// RequireTeacher guards authoring and grading routes.
func RequireTeacher() fiber.Handler {
	return RequireRole(RoleTeacher, RoleAdmin)
}

// canonicalRole lower-cases a role and strips the ROLE_ authority prefix.
func canonicalRole(role string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(role)), "role_")
}
