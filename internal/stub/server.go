// Package stub is a local development stand-in for the marketplace REST API.
// It implements the documented HTTP contract the client SDK consumes, and
// nothing more, so the stores can be exercised without the production
// backend.
package stub

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/example/doot/internal/config"
)

// NewServer builds the fiber app with all routes registered.
func NewServer(db *gorm.DB, cfg *config.StubConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "DooT API Stub",
		// Errors render as {"message": ...} so the client's classifier can
		// surface them.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}
			return c.Status(code).JSON(fiber.Map{"message": message})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	registerRoutes(app, db, cfg)
	return app
}

// registerRoutes wires up the API surface under /api/v1.
func registerRoutes(app *fiber.App, db *gorm.DB, cfg *config.StubConfig) {
	auth := &authHandler{db: db, cfg: cfg}
	sellers := &sellerHandler{db: db}
	products := &productHandler{db: db}
	carts := &cartHandler{db: db}

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)
	authGroup.Post("/refresh", auth.Refresh)
	authGroup.Post("/logout", auth.Logout)
	authGroup.Post("/password/reset", auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", auth.ConfirmPasswordReset)

	productGroup := api.Group("/products")
	productGroup.Get("/", products.List)
	productGroup.Get("/:id", products.Get)

	protected := api.Group("", requireAuth(cfg.JWTSecret))

	protected.Get("/auth/profile", auth.Profile)
	protected.Put("/auth/profile", auth.UpdateProfile)
	protected.Post("/auth/password/change", auth.ChangePassword)

	protected.Get("/sellers/profile", sellers.GetProfile)
	protected.Post("/sellers/profile", sellers.CreateProfile)
	protected.Put("/sellers/profile", sellers.UpdateProfile)

	protected.Get("/orders/cart", carts.GetCart)
	protected.Delete("/orders/cart", carts.ClearCart)
	protected.Get("/orders/cart/summary", carts.Summary)
	protected.Post("/orders/cart/items", carts.AddItem)
	protected.Put("/orders/cart/items/:id", carts.UpdateItem)
	protected.Delete("/orders/cart/items/:id", carts.RemoveItem)
	protected.Post("/orders/cart/apply-coupon", carts.ApplyCoupon)
	protected.Delete("/orders/cart/remove-coupon", carts.RemoveCoupon)
}
