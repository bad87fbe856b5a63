package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almoxarifado-api/internal/application/allocation"
	"github.com/jhoicas/almoxarifado-api/internal/application/auth"
	"github.com/jhoicas/almoxarifado-api/internal/application/catalog"
	"github.com/jhoicas/almoxarifado-api/internal/application/dashboard"
	"github.com/jhoicas/almoxarifado-api/internal/application/employee"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.UseCase
	CatalogUC    *catalog.UseCase
	AllocationUC *allocation.UseCase
	EmployeeUC   *employee.UseCase
	DashboardUC  *dashboard.UseCase
	Photos       catalog.PhotoStore
	UploadsDir   string
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Fotos de productos (público, solo lectura)
	app.Static("/uploads", deps.UploadsDir)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	authGroup.Get("/me", AuthMiddleware(deps.JWTSecret), authHandler.Me)

	// Products (protegido; la escritura la autoriza la política de dominio)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC, deps.Photos)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/search", productHandler.Search)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Post("/:id/stock", RequireRole(entity.RoleWarehouse), productHandler.AdjustStock)
	products.Get("/:id/movements", RequireRole(entity.RoleWarehouse), productHandler.Movements)

	// Allocations (protegido)
	allocations := protected.Group("/allocations")
	allocationHandler := NewAllocationHandler(deps.AllocationUC)
	allocations.Post("/", allocationHandler.Create)
	allocations.Get("/", allocationHandler.List)
	allocations.Get("/pending", RequireRole(entity.RoleWarehouse), allocationHandler.Pending)
	allocations.Get("/:id", allocationHandler.GetByID)
	allocations.Post("/:id/decide", RequireRole(entity.RoleWarehouse), allocationHandler.Decide)

	// Employees (protegido, solo admin)
	employees := protected.Group("/employees", RequireAdmin())
	employeeHandler := NewEmployeeHandler(deps.EmployeeUC)
	employees.Post("/", employeeHandler.Create)
	employees.Get("/", employeeHandler.List)
	employees.Get("/:id", employeeHandler.GetByID)
	employees.Put("/:id", employeeHandler.Update)
	employees.Delete("/:id", employeeHandler.Delete)

	// Dashboard (protegido)
	dash := protected.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dash.Get("/warehouse", RequireRole(entity.RoleWarehouse), dashboardHandler.Warehouse)
	dash.Get("/production", RequireRole(entity.RoleProduction), dashboardHandler.Production)
}
