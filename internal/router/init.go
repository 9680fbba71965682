package router

import (
	userapp "github.com/radityabs/huddle-backend/internal/application"
	"github.com/radityabs/huddle-backend/internal/container"
	gcsinfra "github.com/radityabs/huddle-backend/internal/infrastructure/gcs"
	pginfra "github.com/radityabs/huddle-backend/internal/infrastructure/postgres"
	"github.com/radityabs/huddle-backend/internal/infrastructure/redisstore"
	handlers "github.com/radityabs/huddle-backend/internal/interface/http"
	"github.com/radityabs/huddle-backend/internal/router/modules"
	"github.com/radityabs/huddle-backend/pkg/mailer"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()

	users := pginfra.NewUserRepository(container.GetPGPool())
	sessions := redisstore.NewSessionRegistry(container.GetRedis(), cfg.SessionTTL)
	avatars := gcsinfra.NewAvatarStore(container.GetGCS(), cfg.GCSBucket)
	mail := mailer.NewQueue(container.GetRabbitPub(), cfg)

	return userapp.NewService(
		users,
		sessions,
		container.GetTokens(),
		avatars,
		mail,
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		cfg.TOTPIssuer,
	)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	userHandler := handlers.NewUserHandler(svc, container.GetTokens(), container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	deviceHandler := handlers.NewDeviceHandler(svc, container.GetLogger())

	r.Add(modules.NewUserModule(userHandler, container.GetTokens()))
	r.Add(modules.NewDeviceModule(deviceHandler, container.GetTokens()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
