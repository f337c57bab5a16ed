// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	healthfeature "github.com/coderhub/coderhub/internal/app/features/health"
	hubsfeature "github.com/coderhub/coderhub/internal/app/features/hubs"
	judgesfeature "github.com/coderhub/coderhub/internal/app/features/judges"
	loginfeature "github.com/coderhub/coderhub/internal/app/features/login"
	registerfeature "github.com/coderhub/coderhub/internal/app/features/register"
	usersfeature "github.com/coderhub/coderhub/internal/app/features/users"
	userstore "github.com/coderhub/coderhub/internal/app/store/users"
	"github.com/coderhub/coderhub/internal/app/system/auth"
	"github.com/coderhub/coderhub/internal/app/system/perm"
	"github.com/coderhub/coderhub/internal/app/system/token"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed.
//
// Route layout:
//   - /register, /login, /login/google, /health are public.
//   - Everything under /v1 requires a bearer token (auth.Require) and is
//     then permission-gated per action (perm.Gate).
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	codec, err := token.New([]byte(appCfg.TokenSecret), appCfg.TokenTTL, nil)
	if err != nil {
		logger.Error("token codec init failed", zap.Error(err))
		return nil, err
	}

	// Google login is optional; without a client id the endpoint stays
	// mounted but reports itself unconfigured.
	var verifier loginfeature.IDTokenVerifier
	if appCfg.GoogleClientID != "" {
		gv, err := loginfeature.NewGoogleVerifier(context.Background(), appCfg.GoogleClientID)
		if err != nil {
			logger.Error("google verifier init failed", zap.Error(err))
			return nil, err
		}
		verifier = gv
	}

	users := userstore.New(deps.MongoDatabase)

	userGate := perm.NewGate("user", map[string]string{"link": "link"}, logger)
	hubGate := perm.NewGate("hub", nil, logger)
	judgeGate := perm.NewGate("judge", nil, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public account endpoints
	registerHandler := registerfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, codec, verifier, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	// Authenticated API
	r.Route("/v1", func(vr chi.Router) {
		vr.Use(auth.Require(codec, users, logger))

		usersHandler := usersfeature.NewHandler(deps.MongoDatabase, logger)
		vr.Mount("/users", usersfeature.Routes(usersHandler, userGate))

		hubsHandler := hubsfeature.NewHandler(deps.MongoDatabase, logger)
		vr.Mount("/hubs", hubsfeature.Routes(hubsHandler, hubGate))

		judgesHandler := judgesfeature.NewHandler(deps.MongoDatabase, logger)
		vr.Mount("/judges", judgesfeature.Routes(judgesHandler, judgeGate))
	})

	return r, nil
}
