package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/domain"
)

// ModuleGateMW enforces module-enablement: each enabled module of the
// authenticated account maps to a Casbin subject ("module_orders", ...)
// and a route is reachable only if some enabled module's policy grants
// it.
type ModuleGateMW struct {
	enforcer *casbin.Enforcer
}

// NewModuleGateMW creates a new module gate middleware wrapper.
func NewModuleGateMW(enforcer *casbin.Enforcer) *ModuleGateMW {
	return &ModuleGateMW{enforcer: enforcer}
}

// Enforce returns the module gate middleware. It must run after the
// access gate, which attaches the account to the context.
func (mw *ModuleGateMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		account, ok := AccountFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
			c.Abort()
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed := false
		for _, module := range account.Modules {
			ok, err := mw.enforcer.Enforce("module_"+module, path, method)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
				c.Abort()
				return
			}
			if ok {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrModuleDisabled.Error()})
			c.Abort()
			return
		}

		c.Next()
	})
}
