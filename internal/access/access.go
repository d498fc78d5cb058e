// Package access implements the ordered pre-condition chain every
// organization-scoped route runs before its handler.
package access

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/bluesky/api/internal/authz"
	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/middleware"
	"github.com/stwalsh4118/bluesky/api/internal/repository"
)

const (
	userIDKey         = "user_id"
	organizationIDKey = "organization_id"
	roleKey           = "organization_role"
)

// A Precondition inspects the request and either returns true or writes an
// error response and returns false.
type Precondition func(c *gin.Context) bool

// Chain runs the preconditions in order and aborts on the first failure.
func Chain(preconditions ...Precondition) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range preconditions {
			if !check(c) {
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// Authenticated requires a valid "Authorization: Bearer <token>" header.
func Authenticated(verifier TokenVerifier) Precondition {
	return func(c *gin.Context) bool {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "Authentication credentials were not provided")
			return false
		}

		userID, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			if log := middleware.GetLogger(c); log != nil {
				log.Debug("Bearer token rejected", map[string]interface{}{"error": err.Error()})
			}
			apierrors.Unauthorized(c, "Invalid or expired token")
			return false
		}

		c.Set(userIDKey, userID)
		return true
	}
}

// OrganizationID requires a positive integer organization_id query parameter.
func OrganizationID() Precondition {
	return func(c *gin.Context) bool {
		raw, present := c.GetQuery("organization_id")
		if !present || raw == "" {
			apierrors.BadRequest(c, "organization_id is required", nil)
			return false
		}

		orgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || orgID < 1 {
			apierrors.BadRequest(c, "organization_id must be a positive integer", map[string]interface{}{
				"organization_id": raw,
			})
			return false
		}

		c.Set(organizationIDKey, orgID)
		return true
	}
}

// Permission requires the caller to be a member of the organization whose
// role grants permission. It must run after Authenticated and OrganizationID.
func Permission(members repository.OrganizationRepository, enforcer *authz.Enforcer, permission string) Precondition {
	return func(c *gin.Context) bool {
		userID, okUser := UserID(c)
		orgID, okOrg := OrganizationIDFrom(c)
		if !okUser || !okOrg {
			apierrors.InternalServerError(c, "Access chain misconfigured", errors.New("permission checked before user or organization was resolved"))
			return false
		}

		membership, err := members.FindMembership(c.Request.Context(), orgID, userID)
		if err != nil {
			apierrors.InternalServerError(c, "Failed to check organization access", err)
			return false
		}
		if membership == nil {
			apierrors.Forbidden(c, "Cannot access this organization")
			return false
		}

		allowed, err := enforcer.Allowed(membership.Role, permission)
		if err != nil {
			apierrors.InternalServerError(c, "Failed to check permissions", err)
			return false
		}
		if !allowed {
			apierrors.Forbidden(c, "Insufficient permissions")
			return false
		}

		c.Set(roleKey, membership.Role)
		return true
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (int64, bool) {
	return int64From(c, userIDKey)
}

// OrganizationIDFrom returns the validated organization id.
func OrganizationIDFrom(c *gin.Context) (int64, bool) {
	return int64From(c, organizationIDKey)
}

// Role returns the caller's role in the organization.
func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}

func int64From(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Guard builds the standard chain for organization-scoped routes:
// authentication, organization id, then the named permission.
func Guard(verifier TokenVerifier, members repository.OrganizationRepository, enforcer *authz.Enforcer) func(permission string) gin.HandlerFunc {
	return func(permission string) gin.HandlerFunc {
		return Chain(
			Authenticated(verifier),
			OrganizationID(),
			Permission(members, enforcer, permission),
		)
	}
}
