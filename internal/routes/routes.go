package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/arkline/modguard/internal/db"
	"gitlab.com/arkline/modguard/internal/filter"
	"gitlab.com/arkline/modguard/internal/models"
)

type ctxKey int

const (
	IdentityCtxKey ctxKey = iota
	ModeratorHCtxKey
)

type Routes struct {
	envConfig *models.EnvConfig
	db        *db.SharedDB
	idp       models.IdentityProvider
	content   models.ContentStore
	filter    *filter.Engine
	logger    zerolog.Logger
}

func NewRouter(envConfig *models.EnvConfig, database *db.SharedDB, idp models.IdentityProvider, content models.ContentStore, engine *filter.Engine, logger zerolog.Logger) chi.Router {
	routes := &Routes{
		envConfig: envConfig,
		db:        database,
		idp:       idp,
		content:   content,
		filter:    engine,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("Request")
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/filter/evaluate", routes.AppHandler(routes.PostEvaluate))
	r.Get("/enforcement/users/{userID}", routes.AppHandler(routes.GetEnforcement))

	r.Group(func(r chi.Router) {
		r.Use(routes.AuthCtx)
		r.Post("/reports", routes.AppHandler(routes.PostReport))

		r.Group(func(r chi.Router) {
			r.Use(routes.ModeratorCtx)
			r.Get("/reports", routes.AppHandler(routes.GetReports))
			r.Get("/reports/{reportID}", routes.AppHandler(routes.GetReport))
			r.Post("/reports/{reportID}/resolve", routes.AppHandler(routes.PostResolveReport))
			r.Post("/actions", routes.AppHandler(routes.PostAction))
			r.Get("/users/{userID}/actions", routes.AppHandler(routes.GetUserActions))
			r.Get("/users/{userID}/bans", routes.AppHandler(routes.GetUserBans))
			r.Get("/bans", routes.AppHandler(routes.GetBans))
			r.Route("/words", routes.WordsRouter)
		})
	})

	return r
}

// AuthCtx resolves the bearer token through the identity provider and
// stores the identity in the request context.
func (routes *Routes) AuthCtx(next http.Handler) http.Handler {
	return routes.AppHandler(func(w http.ResponseWriter, r *http.Request) AppError {
		token := bearerToken(r)
		if token == "" {
			return &ErrUnauthorized{Cause: models.ErrUnauthorized}
		}
		identity, err := routes.idp.ResolveIdentity(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				return &ErrUnauthorized{Cause: err}
			}
			return &ErrInternal{Cause: err, Message: "Error resolving identity"}
		}
		ctx := context.WithValue(r.Context(), IdentityCtxKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
}

// ModeratorCtx upgrades the identity to a moderator handle; non-admins
// are rejected.
func (routes *Routes) ModeratorCtx(next http.Handler) http.Handler {
	return routes.AppHandler(func(w http.ResponseWriter, r *http.Request) AppError {
		identity := r.Context().Value(IdentityCtxKey).(models.Identity)
		modH, err := routes.db.GetModeratorH(identity, routes.content)
		if err != nil {
			return &ErrForbidden{Cause: err}
		}
		ctx := context.WithValue(r.Context(), ModeratorHCtxKey, modH)
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func GetIdentity(r *http.Request) models.Identity {
	return r.Context().Value(IdentityCtxKey).(models.Identity)
}

func GetModeratorH(r *http.Request) *db.ModeratorH {
	return r.Context().Value(ModeratorHCtxKey).(*db.ModeratorH)
}
