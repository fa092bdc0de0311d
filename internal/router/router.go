package router

import (
	"net/http"

	"pantry-hub/internal/config"
	"pantry-hub/internal/handler"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	User         *handler.UserHandler
	Household    *handler.HouseholdHandler
	FoodItem     *handler.FoodItemHandler
	Meal         *handler.MealHandler
	ShoppingList *handler.ShoppingListHandler
	Pantry       *handler.PantryHandler
	Product      *handler.ProductHandler
}

// Options carries the non-handler dependencies of the router.
type Options struct {
	Auth     config.AuthConfig
	Users    middleware.UserLoader
	Gatherer prometheus.Gatherer // nil disables /metrics
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options) http.Handler {
	logger := opts.Logger
	r := chi.NewRouter()

	// Middleware order: Recovery -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Service-to-service provisioning
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(opts.Auth.APIKey, logger))
		r.Post("/users", h.User.Register)
	})

	r.Route("/api", func(r chi.Router) {
		// Public invitation lookup behind the accept page
		r.Get("/household/invitation/{token}", h.Household.GetInvitation)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(opts.Auth.JWTSecret, opts.Auth.JWTIssuer, opts.Users, logger))

			r.Get("/users/me", h.User.Me)

			r.Route("/household", func(r chi.Router) {
				r.Post("/", h.Household.Create)
				r.Get("/", h.Household.Get)
				r.Put("/", h.Household.Update)
				r.Delete("/", h.Household.Delete)
				r.Post("/invite", h.Household.Invite)
				r.Post("/accept-invite", h.Household.Accept)
				r.Post("/decline-invite", h.Household.Decline)
				r.Post("/leave", h.Household.Leave)
				r.Delete("/members/{memberId}", h.Household.RemoveMember)
				r.Put("/members/{memberId}/role", h.Household.UpdateMemberRole)
			})

			r.Route("/food-items", func(r chi.Router) {
				r.Post("/", h.FoodItem.Create)
				r.Get("/", h.FoodItem.List)
				r.Post("/find-or-create", h.FoodItem.FindOrCreate)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.FoodItem.Get)
					r.Put("/", h.FoodItem.Update)
					r.Delete("/", h.FoodItem.Delete)
					r.Patch("/quantity", h.FoodItem.UpdateQuantity)
					r.Put("/move", h.FoodItem.Move)
					r.Post("/image", h.FoodItem.UploadImage)
					r.Delete("/image", h.FoodItem.RemoveImage)
					r.Post("/enrich", h.FoodItem.Enrich)
				})
			})

			r.Route("/meals", func(r chi.Router) {
				r.Post("/", h.Meal.Create)
				r.Get("/", h.Meal.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Meal.Get)
					r.Put("/", h.Meal.Update)
					r.Delete("/", h.Meal.Delete)
					r.Post("/image", h.Meal.UploadImage)
					r.Delete("/image", h.Meal.RemoveImage)
				})
			})

			r.Route("/shopping-lists", func(r chi.Router) {
				r.Post("/", h.ShoppingList.Create)
				r.Get("/", h.ShoppingList.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.ShoppingList.Get)
					r.Put("/", h.ShoppingList.Update)
					r.Delete("/", h.ShoppingList.Delete)
					r.Post("/items", h.ShoppingList.AddItems)
					r.Delete("/items/{itemId}", h.ShoppingList.RemoveItem)
					r.Put("/items/{itemId}/bought", h.ShoppingList.MarkBought)
				})
			})

			r.Route("/pantry", func(r chi.Router) {
				r.Get("/", h.Pantry.Get)
				r.Get("/expiring", h.Pantry.Expiring)
				r.Post("/items", h.Pantry.AddItem)
				r.Post("/move-from-shopping", h.Pantry.AddItems)
				r.Put("/items/{itemId}", h.Pantry.UpdateItem)
				r.Delete("/items/{itemId}", h.Pantry.RemoveItem)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/barcode/{barcode}", h.Product.ByBarcode)
				r.Post("/barcode/{barcode}/add", h.FoodItem.AddFromBarcode)
				r.Get("/search", h.Product.Search)
				r.Get("/category/{category}", h.Product.ByCategory)
				r.Get("/categories", h.Product.Categories)
				r.Get("/suggestions", h.Product.Suggestions)
			})
		})
	})

	return r
}
