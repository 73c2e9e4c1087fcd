package principal

import (
	"github.com/gin-gonic/gin"

	"github.com/ustatop/ustatop-api/internal/models"
)

// Principal is the authenticated identity attached to a request by the
// auth middleware. Role is one of models.RoleClient / RoleMaster /
// RoleAdmin.
type Principal struct {
	UserID uint
	Role   string
}

const ContextKey = "principal"

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func (p Principal) IsMaster() bool {
	return p.Role == models.RoleMaster
}

func (p Principal) IsClient() bool {
	return p.Role == models.RoleClient
}

// FromContext returns the principal set by the auth middleware.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// MustFromContext is for routes behind the auth middleware, where the
// principal is always present.
func MustFromContext(c *gin.Context) Principal {
	return c.MustGet(ContextKey).(Principal)
}
