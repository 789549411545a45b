package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const principalGinKey = "auth.principal"

// Authenticate validates the bearer token of every request and stores the Principal
// on both the gin context and the request context. Missing or invalid tokens get 401.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		p, err := ParseToken(tokenStr, secret)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}
		c.Set(principalGinKey, p)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireRoleMiddleware rejects callers whose token does not carry role with 403.
func RequireRoleMiddleware(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
			return
		}
		if p.Role != role {
			abort(c, http.StatusForbidden, "FORBIDDEN", "only "+role+" can perform this action")
			return
		}
		c.Next()
	}
}

// RequireAdminMiddleware is RequireRoleMiddleware(ROLE_ADMIN) plus a database check of
// the stored role, so a token minted with a forged role claim is refused.
func RequireAdminMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
			return
		}
		if !p.IsAdmin() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "only ROLE_ADMIN can perform this action")
			return
		}
		admin, err := StoredAdmin(c.Request.Context(), users, p)
		if err != nil {
			abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not verify role")
			return
		}
		if !admin {
			abort(c, http.StatusForbidden, "FORBIDDEN", "only ROLE_ADMIN can perform this action")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the Principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalGinKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}
