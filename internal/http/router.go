package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-mgmt/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	profileH *ProfileHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthH.Health)

	users := r.Group("/users")
	users.POST("/register", userH.Register)
	users.GET("/verify/:uid/:token", userH.VerifyEmail)
	users.POST("/password-reset", userH.RequestPasswordReset)
	users.POST("/password-reset/confirm", userH.ConfirmPasswordReset)

	auth := r.Group("/auth")
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	// Rutas que requieren identidad autenticada.
	protected := users.Group("", JWTAuthMiddleware(jwtSvc))
	protected.POST("/resend-verification", userH.ResendVerification)
	protected.GET("/profile", profileH.GetProfile)
	protected.PUT("/profile", profileH.UpdateProfile)
	protected.POST("/change-password", userH.ChangePassword)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
