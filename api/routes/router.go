package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetdelights/bakery-backend/api/controllers"
	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/internal/analytics"
	"github.com/sweetdelights/bakery-backend/internal/auth"
	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/categories"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/enquiries"
	"github.com/sweetdelights/bakery-backend/internal/media"
	"github.com/sweetdelights/bakery-backend/internal/notifications"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	"github.com/sweetdelights/bakery-backend/internal/slideshow"
	"github.com/sweetdelights/bakery-backend/internal/users"
	"github.com/sweetdelights/bakery-backend/pkg/auth/session"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	pkgredis "github.com/sweetdelights/bakery-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

// Dependencies carries everything the router wires into handlers. A nil
// service answers 503 on its routes.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Storage  controllers.Pinger
	Sessions session.AccessSessionChecker
	Metrics  prometheus.Gatherer

	Auth          auth.Service
	Profiles      users.ProfileService
	Products      product.Service
	Categories    categories.Service
	Slideshow     slideshow.Service
	Media         media.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Enquiries     enquiries.Service
	Notifications notifications.Service
	Dashboard     analytics.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Storefront.CORSOrigins),
		middleware.Guest(logg),
	)

	idempotency := middleware.Idempotency(deps.Redis, logg)
	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewRateLimitPolicy(
		"register",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	if deps.Storage != nil {
		readiness["storage"] = deps.Storage
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Refresh carries an expired access token, so auth routes sit outside
		// the optional identity group.
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.RateLimit(registerPolicy, deps.Redis, logg), idempotency).
				Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
				Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
			r.Use(idempotency)

			r.Get("/products", controllers.ListProducts(deps.Products, logg))
			r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Get("/categories", controllers.ListCategories(deps.Categories, logg))
			r.Get("/slideshow", controllers.ListSlides(deps.Slideshow, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Patch("/items/{lineId}", controllers.SetCartItemQuantity(deps.Cart, logg))
				r.Delete("/items/{lineId}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Post("/merge", controllers.MergeGuestCart(deps.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Post("/enquiries", controllers.SubmitEnquiry(deps.Enquiries, logg))

			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Get("/profile", controllers.GetProfile(deps.Profiles, logg))
				r.Patch("/profile", controllers.UpdateProfile(deps.Profiles, logg))
				r.Get("/orders", controllers.MyOrders(deps.Orders, logg))
				r.Get("/orders/{orderId}", controllers.MyOrder(deps.Orders, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

				r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminListProducts(deps.Products, logg))
					r.Post("/", controllers.CreateProduct(deps.Products, logg))
					r.Get("/{productId}", controllers.AdminGetProduct(deps.Products, logg))
					r.Patch("/{productId}", controllers.UpdateProduct(deps.Products, logg))
					r.Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
				})
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", controllers.AdminListCategories(deps.Categories, logg))
					r.Post("/", controllers.CreateCategory(deps.Categories, logg))
					r.Post("/reorder", controllers.ReorderCategories(deps.Categories, logg))
					r.Patch("/{categoryId}", controllers.UpdateCategory(deps.Categories, logg))
					r.Delete("/{categoryId}", controllers.DeleteCategory(deps.Categories, logg))
				})
				r.Route("/slideshow", func(r chi.Router) {
					r.Get("/", controllers.ListSlides(deps.Slideshow, logg))
					r.Post("/", controllers.CreateSlide(deps.Slideshow, logg))
					r.Post("/reorder", controllers.ReorderSlides(deps.Slideshow, logg))
					r.Patch("/{slideId}", controllers.UpdateSlide(deps.Slideshow, logg))
					r.Delete("/{slideId}", controllers.DeleteSlide(deps.Slideshow, logg))
				})
				r.Route("/media", func(r chi.Router) {
					r.Post("/", controllers.UploadMedia(deps.Media, cfg.Media.MaxUploadBytes(), logg))
					r.Delete("/", controllers.DeleteMedia(deps.Media, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
					r.Get("/export", controllers.AdminExportOrders(deps.Orders, cfg.Storefront.CurrencySymbol, logg))
					r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
					r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				})
				r.Route("/enquiries", func(r chi.Router) {
					r.Get("/", controllers.AdminListEnquiries(deps.Enquiries, logg))
					r.Get("/export", controllers.AdminExportEnquiries(deps.Enquiries, logg))
					r.Get("/{enquiryId}", controllers.AdminGetEnquiry(deps.Enquiries, logg))
					r.Patch("/{enquiryId}/status", controllers.AdminUpdateEnquiryStatus(deps.Enquiries, logg))
					r.Delete("/{enquiryId}", controllers.AdminDeleteEnquiry(deps.Enquiries, logg))
				})
				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
					r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
					r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				})
			})
		})
	})

	return r
}
