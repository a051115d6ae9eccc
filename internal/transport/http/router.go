package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/onlinestore-api/internal/application/auth"
	"github.com/onlinestore-api/internal/application/product"
	"github.com/onlinestore-api/internal/application/user"
	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/domain"
	"github.com/onlinestore-api/internal/infrastructure/credentials"
	jwtinfra "github.com/onlinestore-api/internal/infrastructure/jwt"
	"github.com/onlinestore-api/internal/transport/http/handler"
	appmiddleware "github.com/onlinestore-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo  AccountRepository
	ProductRepo  ProductRepository
	CategoryRepo CategoryRepository
	Images       ObjectStore
	Mailer       MailSender
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background work owned by the router.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.AccountRepo})
	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo:   deps.AccountRepo,
		UserCreator:   userSvc,
		Mailer:        deps.Mailer,
		Authenticator: credentials.NewProvider(deps.AccountRepo, cfg.RequireVerified),
		TokenIssuer:   deps.JWTProvider,
		AdminMail:     cfg.MailAdminAddress,
	})
	productSvc := product.NewService(product.ServiceDeps{
		ProductRepo:  deps.ProductRepo,
		CategoryRepo: deps.CategoryRepo,
		Images:       deps.Images,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	productH := handler.NewProductHandler(productSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health-check/{action}", healthH.Ping)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/auth/register", authH.Register)
			r.Post("/auth/verify", authH.Verify)
			r.Post("/auth/login", authH.Login)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users/{id}", userH.Get)
			r.Get("/products/{id}", productH.Get)
			r.Get("/categories", productH.ListCategories)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireAuthority(domain.AuthorityAdmin))

				r.Delete("/users/{id}", userH.Delete)
				r.Post("/products", productH.Create)
				r.Post("/products/images", productH.UploadImage)
				r.Post("/categories", productH.CreateCategory)
			})
		})
	})

	return r
}
