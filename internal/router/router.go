package router

import (
	"context"
	"net/http"

	"orders-api/internal/auth"
	"orders-api/internal/handler"
	"orders-api/internal/metrics"
	"orders-api/internal/middleware"
	"orders-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers bundles the HTTP handlers mounted by New.
type Handlers struct {
	Countries  *handler.ReferenceHandler[model.Country]
	States     *handler.ReferenceHandler[model.State]
	Cities     *handler.ReferenceHandler[model.City]
	Categories *handler.ReferenceHandler[model.Category]
	Products   *handler.ProductHandler
	Carts      *handler.CartHandler
	Orders     *handler.OrderHandler
	Accounts   *handler.AccountHandler
}

// Options configures the cross-cutting parts of the router.
type Options struct {
	Tokens            *auth.TokenService
	Metrics           *metrics.Metrics
	CORSAllowedOrigin string

	// FilesDir is served under /files when set (local blob storage).
	FilesDir string

	// Health reports whether the backing services are reachable.
	Health func(ctx context.Context) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> Metrics
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.CORSAllowedOrigin))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	authn := middleware.Authenticate(opts.Tokens, logger)
	admin := middleware.RequireRole(model.UserTypeAdmin)

	r.Get("/health", healthHandler(opts.Health, logger))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.FilesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(opts.FilesDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/countries", func(r chi.Router) { mountReference(r, h.Countries, authn, admin) })
		r.Route("/states", func(r chi.Router) { mountReference(r, h.States, authn, admin) })
		r.Route("/cities", func(r chi.Router) { mountReference(r, h.Cities, authn, admin) })
		r.Route("/categories", func(r chi.Router) { mountReference(r, h.Categories, authn, admin) })

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/totalPages", h.Products.TotalPages)
			r.Get("/{id}", h.Products.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authn, admin)
				r.Post("/full", h.Products.Create)
				r.Put("/full", h.Products.Update)
				r.Post("/addImages", h.Products.AddImages)
				r.Post("/removeLastImage", h.Products.RemoveLastImage)
				r.Delete("/{id}", h.Products.Delete)
			})
		})

		r.Route("/temporalOrders", func(r chi.Router) {
			r.Use(authn)
			r.Post("/full", h.Carts.Add)
			r.Put("/full", h.Carts.Update)
			r.Get("/my", h.Carts.Mine)
			r.Get("/count", h.Carts.Count)
			r.Get("/{id}", h.Carts.Get)
			r.Delete("/{id}", h.Carts.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.Orders.List)
			r.Post("/", h.Orders.Checkout)
			r.Put("/", h.Orders.UpdateStatus)
			r.Get("/totalPages", h.Orders.TotalPages)
			r.Get("/{id}", h.Orders.GetByID)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/CreateUser", h.Accounts.Register)
			r.Post("/Login", h.Accounts.Login)
			r.Post("/ResedToken", h.Accounts.ResendConfirmation)
			r.Post("/RecoverPassword", h.Accounts.RecoverPassword)
			r.Post("/ResetPassword", h.Accounts.ResetPassword)
			r.Get("/ConfirmEmail", h.Accounts.ConfirmEmail)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/", h.Accounts.Current)
				r.Put("/", h.Accounts.UpdateProfile)
				r.Post("/changePassword", h.Accounts.ChangePassword)

				r.With(admin).Get("/all", h.Accounts.List)
				r.With(admin).Get("/totalPages", h.Accounts.TotalPages)
			})
		})
	})

	return r
}

// mountReference registers the shared lookup routes: anonymous reads and
// admin-only writes.
func mountReference[T any](r chi.Router, h *handler.ReferenceHandler[T], authn, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/totalPages", h.TotalPages)
	r.Get("/full", h.All)
	r.Get("/combo", h.Combo)
	r.Get("/combo/{parentId}", h.Combo)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(authn, admin)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func healthHandler(check func(ctx context.Context) error, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}
}
