package routes

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/galacticcouncil/warehouse/gateway/auth"
	"github.com/galacticcouncil/warehouse/gateway/middleware"
	"github.com/galacticcouncil/warehouse/native/farming"
)

// Config wires the engine and its surrounding middleware into one HTTP
// handler. Authenticator gates admin-scoped farm-lifecycle endpoints behind a
// JWT bearer token; HMACAuth gates depositor-facing endpoints (deposit,
// redeposit, claim, withdraw) behind a signed-request scheme so a leaked
// bearer token can't move funds on its own.
type Config struct {
	Engine        *farming.Engine
	Hub           *Hub
	Authenticator *middleware.Authenticator
	HMACAuth      *auth.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	AdminScopes   []string
}

// New builds the gateway's root HTTP handler.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	fr := NewFarmingRoutes(cfg.Engine, cfg.HMACAuth)
	sr := newStreamRoutes(cfg.Hub)

	// engineMu serialises every handler that calls into the Engine.
	var engineMu sync.Mutex
	serialise := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			engineMu.Lock()
			defer engineMu.Unlock()
			next.ServeHTTP(w, req)
		})
	}

	r.Route("/v1/farming", func(router chi.Router) {
		if cfg.RateLimiter != nil {
			router.Use(cfg.RateLimiter.Middleware("farming"))
		}
		if obs != nil {
			router.Use(obs.Middleware("farming"))
		}

		router.Group(func(admin chi.Router) {
			if cfg.Authenticator != nil {
				admin.Use(cfg.Authenticator.Middleware(cfg.AdminScopes...))
			}
			admin.Use(serialise)
			admin.Post("/global-farms", fr.createGlobalFarm)
			admin.Post("/global-farms/{id}/destroy", fr.destroyGlobalFarm)
			admin.Post("/yield-farms", fr.createYieldFarm)
			admin.Post("/yield-farms/{id}/multiplier", fr.updateYieldFarmMultiplier)
			admin.Post("/yield-farms/{id}/stop", fr.stopYieldFarm)
			admin.Post("/yield-farms/{id}/resume", fr.resumeYieldFarm)
			admin.Post("/yield-farms/{id}/destroy", fr.destroyYieldFarm)
		})

		router.With(serialise).Post("/deposits", fr.depositLPShares)
		router.With(serialise).Post("/deposits/{id}/redeposit", fr.redepositLPShares)
		router.With(serialise).Post("/deposits/{id}/claim", fr.claimRewards)
		router.With(serialise).Post("/deposits/{id}/withdraw", fr.withdrawLPShares)

		if cfg.Hub != nil {
			router.Get("/stream", sr.serve)
		}
	})

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r
}
