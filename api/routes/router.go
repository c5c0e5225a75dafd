package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockroom-backend/api/controllers"
	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/audit"
	authsvc "github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/internal/contacts"
	"github.com/angelmondragon/stockroom-backend/internal/imports"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/internal/products"
	"github.com/angelmondragon/stockroom-backend/internal/purchases"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Cfg              *config.Config
	Logg             *logger.Logger
	DB               *db.Client
	Idempotency      pkgredis.IdempotencyStore
	HTTPMetrics      *metrics.HTTPMetrics
	TokenParser      middleware.TokenParser
	AuthService      authsvc.Service
	ProductService   products.Service
	ProductImporter  *imports.ProductImporter
	PurchaseImporter *imports.PurchaseImporter
	OrderService     orders.Service
	PurchaseService  purchases.Service
	CategoryService  catalog.CategoryService
	UnitService      catalog.UnitService
	CustomerService  contacts.CustomerService
	SupplierService  contacts.SupplierService
	UserService      users.Service
	AuditWriter      audit.Writer
}

// NewRouter assembles the HTTP surface. Everything under /api/v1 requires a
// bearer token; user management additionally requires the admin role.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(d.Logg),
		middleware.Logging(d.Logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.Recoverer(d.Logg),
	)

	maxUploadMB := 0
	if d.Cfg != nil {
		maxUploadMB = d.Cfg.Import.MaxUploadMB
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Cfg))
		r.Get("/ready", controllers.HealthReady(d.Cfg, d.DB))
	})

	if d.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", d.HTTPMetrics.Handler())
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(d.AuthService, d.Logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(d.TokenParser, d.Logg),
			middleware.Idempotency(d.Idempotency, d.Logg),
		)

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.ProductService, d.Logg))
			r.Post("/", controllers.ProductCreate(d.ProductService, d.Logg))
			r.Get("/export", controllers.ProductExport(d.ProductService, d.Logg))
			r.Post("/import/preview", controllers.ProductImportPreview(d.ProductImporter, maxUploadMB, d.Logg))
			r.Post("/import/confirm", controllers.ProductImportConfirm(d.ProductImporter, maxUploadMB, d.Logg))
			r.Get("/{id}", controllers.ProductGet(d.ProductService, d.Logg))
			r.Put("/{id}", controllers.ProductUpdate(d.ProductService, d.Logg))
			r.Delete("/{id}", controllers.ProductDelete(d.ProductService, d.Logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(d.CategoryService, d.Logg))
			r.Post("/", controllers.CategoryCreate(d.CategoryService, d.Logg))
			r.Get("/{id}", controllers.CategoryGet(d.CategoryService, d.Logg))
			r.Put("/{id}", controllers.CategoryUpdate(d.CategoryService, d.Logg))
			r.Delete("/{id}", controllers.CategoryDelete(d.CategoryService, d.Logg))
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", controllers.UnitList(d.UnitService, d.Logg))
			r.Post("/", controllers.UnitCreate(d.UnitService, d.Logg))
			r.Get("/{id}", controllers.UnitGet(d.UnitService, d.Logg))
			r.Put("/{id}", controllers.UnitUpdate(d.UnitService, d.Logg))
			r.Delete("/{id}", controllers.UnitDelete(d.UnitService, d.Logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(d.CustomerService, d.Logg))
			r.Post("/", controllers.CustomerCreate(d.CustomerService, d.Logg))
			r.Get("/{id}", controllers.CustomerGet(d.CustomerService, d.Logg))
			r.Put("/{id}", controllers.CustomerUpdate(d.CustomerService, d.Logg))
			r.Delete("/{id}", controllers.CustomerDelete(d.CustomerService, d.Logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(d.SupplierService, d.Logg))
			r.Post("/", controllers.SupplierCreate(d.SupplierService, d.Logg))
			r.Get("/{id}", controllers.SupplierGet(d.SupplierService, d.Logg))
			r.Put("/{id}", controllers.SupplierUpdate(d.SupplierService, d.Logg))
			r.Delete("/{id}", controllers.SupplierDelete(d.SupplierService, d.Logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.OrderService, d.Logg))
			r.Post("/", controllers.OrderCreate(d.OrderService, d.Logg))
			r.Get("/{id}", controllers.OrderGet(d.OrderService, d.Logg))
			r.Post("/{id}/complete", controllers.OrderComplete(d.OrderService, d.Logg))
			r.Post("/{id}/cancel", controllers.OrderCancel(d.OrderService, d.Logg))
			r.Post("/{id}/return", controllers.OrderReturn(d.OrderService, d.Logg))
			r.Delete("/{id}", controllers.OrderDelete(d.OrderService, d.Logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchaseList(d.PurchaseService, d.Logg))
			r.Post("/", controllers.PurchaseCreate(d.PurchaseService, d.Logg))
			r.Post("/import/preview", controllers.PurchaseImportPreview(d.PurchaseImporter, maxUploadMB, d.Logg))
			r.Post("/import/confirm", controllers.PurchaseImportConfirm(d.PurchaseImporter, maxUploadMB, d.Logg))
			r.Get("/{id}", controllers.PurchaseGet(d.PurchaseService, d.Logg))
			r.Put("/{id}", controllers.PurchaseUpdate(d.PurchaseService, d.Logg))
			r.Post("/{id}/approve", controllers.PurchaseApprove(d.PurchaseService, d.Logg))
			r.Delete("/{id}", controllers.PurchaseDelete(d.PurchaseService, d.Logg))
		})

		r.Route("/activity", func(r chi.Router) {
			r.Get("/", controllers.ActivityList(d.AuditWriter, d.Logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(d.Logg, enums.UserRoleAdmin))
			r.Get("/", controllers.UserList(d.UserService, d.Logg))
			r.Post("/", controllers.UserCreate(d.UserService, d.Logg))
			r.Get("/{id}", controllers.UserGet(d.UserService, d.Logg))
			r.Put("/{id}", controllers.UserUpdate(d.UserService, d.Logg))
			r.Delete("/{id}", controllers.UserDelete(d.UserService, d.Logg))
		})
	})

	return r
}
