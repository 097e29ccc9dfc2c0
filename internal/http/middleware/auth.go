package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
)

// PrincipalLocalKey stores the authenticated *security.Principal in fiber locals.
const PrincipalLocalKey = "principal"

// Auth validates "Authorization: Bearer <access token>" and rejects revoked tokens.
// The resulting principal is available through CurrentPrincipal and security.PrincipalFrom.
func Auth(tokens *security.TokenManager, blacklist security.TokenBlacklist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return service.ErrUnauthenticated
		}
		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			return service.ErrUnauthenticated
		}
		revoked, err := blacklist.Contains(c.UserContext(), claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return service.ErrTokenRevoked
		}

		p := security.PrincipalFromClaims(claims)
		c.Locals(PrincipalLocalKey, p)
		c.SetUserContext(security.WithPrincipal(c.UserContext(), p))
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAny lets the request through when the principal is an admin or holds any of perms.
func RequireAny(perms ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return service.ErrUnauthenticated
		}
		if !p.HasAny(perms...) {
			return service.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentPrincipal returns the principal set by Auth, or nil.
func CurrentPrincipal(c *fiber.Ctx) *security.Principal {
	p, _ := c.Locals(PrincipalLocalKey).(*security.Principal)
	return p
}
