package httpx

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/internal/http/handlers"
	"github.com/you/shopcore/internal/http/middleware"
)

func BuildRouter(ah *handlers.AuthHandlers, oh *handlers.OrderHandlers, jwtmw *middleware.AuthMW, gate *middleware.ModuleGateMW, requestTimeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTimeout(requestTimeout))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/send-otp", ah.SendOTP)
	auth.POST("/verify-otp", ah.VerifyOTP)
	auth.POST("/refresh-token", ah.Refresh)
	auth.POST("/validate-token", ah.ValidateToken)

	session := r.Group("/auth").Use(jwtmw.WithJWT())
	session.POST("/logout", ah.Logout)
	session.GET("/me", ah.Me)

	orders := r.Group("/orders").Use(jwtmw.WithJWT(), gate.Enforce())
	orders.POST("/place", oh.Place)
	orders.POST("/:id/cancel", oh.Cancel)
	orders.GET("/:id", oh.Get)

	return r
}
