package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/launchbase/launchbase-backend/internal/config"
	"github.com/launchbase/launchbase-backend/internal/handlers"
	"github.com/launchbase/launchbase-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health
	api.Get("/health", healthHandler.Check)

	// Auth — public
	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/verify", authHandler.VerifyEmail)
	auth.Post("/reset-password", authHandler.RequestPasswordReset)
	auth.Put("/reset-password", authHandler.ResetPassword)

	// User profile (JWT required) - apply middleware to individual routes
	// so public routes are unaffected
	api.Get("/user/profile", middleware.JWTProtected(cfg), userHandler.GetProfile)
	api.Put("/user/profile", middleware.JWTProtected(cfg), userHandler.UpdateProfile)
	api.Get("/user/entitlements", middleware.JWTProtected(cfg), userHandler.GetEntitlements)

	// Subscriptions — plan catalog is public, the rest requires JWT
	subs := api.Group("/subscriptions")
	subs.Get("/plans", subscriptionHandler.ListPlans)
	subs.Post("/checkout", middleware.JWTProtected(cfg), subscriptionHandler.CreateCheckout)
	subs.Get("/current", middleware.JWTProtected(cfg), subscriptionHandler.CurrentSubscription)
	subs.Post("/cancel", middleware.JWTProtected(cfg), subscriptionHandler.Cancel)
	subs.Post("/upgrade", middleware.JWTProtected(cfg), subscriptionHandler.Upgrade)
	subs.Post("/portal", middleware.JWTProtected(cfg), subscriptionHandler.BillingPortal)
	subs.Get("/invoices", middleware.JWTProtected(cfg), subscriptionHandler.ListInvoices)

	// Webhooks — signature-verified, no JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", webhookHandler.HandleStripe)
}
