package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"companyhub-backend/controllers"
	"companyhub-backend/database"
	"companyhub-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, provisioner *database.Provisioner, router *database.Router, cache *database.Cache, log *zap.Logger) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register(provisioner, log))
	api.Post("/login", controllers.Login(log))
	api.Post("/logout", controllers.Logout())

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Resolve the tenant database once per request
	protected.Use(middlewares.TenantConn(router))

	// Company account
	protected.Post("/company/deactivate", controllers.Deactivate(cache, log))

	// Users
	protected.Post("/user", controllers.CreateUser())
	protected.Get("/users", controllers.GetUsers())
	protected.Get("/user/:id", controllers.GetUser())
	protected.Put("/user/:id", controllers.UpdateUser())
	protected.Delete("/user/:id", controllers.DeleteUser())

	// Products
	protected.Post("/product", controllers.CreateProduct())
	protected.Get("/products", controllers.GetProducts())
	protected.Get("/product/:id", controllers.GetProduct())
	protected.Put("/product/:id", controllers.UpdateProduct())
	protected.Delete("/product/:id", controllers.DeleteProduct())

	// Orders
	protected.Post("/order", controllers.CreateOrder())
	protected.Get("/orders", controllers.GetOrders())
	protected.Get("/order/:id", controllers.GetOrder())

	// Customers
	protected.Post("/customer", controllers.CreateCustomer())
	protected.Get("/customers", controllers.GetCustomers())
	protected.Put("/customer/:id", controllers.UpdateCustomer())

	// Settings
	protected.Get("/settings", controllers.GetSettings())
	protected.Put("/setting/:key", controllers.UpdateSetting())
}
