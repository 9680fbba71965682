package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radityabs/huddle-backend/internal/container"
	handlers "github.com/radityabs/huddle-backend/internal/interface/http"
	"github.com/radityabs/huddle-backend/internal/interface/middleware"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// UserModule wires the account lifecycle routes under /api/users.
//
// Public:    POST /api/users/register, POST /api/users/verify-email (and the
//            GET /:token variant for email links), POST /api/users/login,
//            POST /api/users/login-2fa, POST /api/users/refresh-token
// Protected: POST /api/users/complete-profile, POST /api/users/logout,
//            POST /api/users/2fa/enable, POST /api/users/2fa/verify,
//            GET /api/users/me, GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  *helpers.TokenManager
}

func NewUserModule(h *handlers.UserHandler, tokens *helpers.TokenManager) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	twoFALimiter := middleware.RateLimit(container.GetRedis(), 15, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	users.POST("/register", registerLimiter, m.Handler.Register)
	users.POST("/verify-email", m.Handler.VerifyEmail)
	users.GET("/verify-email/:token", m.Handler.VerifyEmail)
	users.POST("/login", loginLimiter, m.Handler.Login)
	users.POST("/login-2fa", twoFALimiter, m.Handler.Login2FA)
	users.POST("/refresh-token", refreshLimiter, m.Handler.RefreshToken)

	auth := users.Group("/")
	auth.Use(middleware.Auth(m.Tokens))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/complete-profile", m.Handler.CompleteProfile)
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/2fa/enable", m.Handler.Enable2FA)
		auth.POST("/2fa/verify", m.Handler.Verify2FA)
		auth.GET("/me", m.Handler.Me)
		auth.GET("/search", m.Handler.Search)
	}
}
