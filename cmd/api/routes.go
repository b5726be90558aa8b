package main

import (
	"time"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/handler"
	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/middleware"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

type routeDeps struct {
	cfg     *config.Config
	log     *zap.Logger
	loc     *time.Location
	hub     *ws.Hub
	metrics *metrics.Metrics

	auth      service.AuthService
	users     service.UserService
	roles     repository.RoleRepository
	privs     repository.PrivilegeRepository
	catalog   service.CatalogService
	inventory service.InventoryService
	customers service.CustomerService
	suppliers service.SupplierService
	sales     service.SaleService
	ncf       service.NcfService
	rnc       service.RncService
	purchases service.PurchaseService
	reports   service.ReportService
	dashboard service.DashboardService
	settings  service.SettingsService
	audit     service.AuditService
	delivery  service.DeliveryService
	whatsapp  service.WhatsAppService
}

func registerRoutes(app *fiber.App, d routeDeps) {
	log := d.log

	authHandler := handler.NewAuthHandler(d.auth, d.cfg.Cookie, log)
	userHandler := handler.NewUserHandler(d.users, log)
	roleHandler := handler.NewRoleHandler(d.roles, d.privs, log)
	catalogHandler := handler.NewCatalogHandler(d.catalog, log)
	invHandler := handler.NewInventoryHandler(d.inventory, d.loc, log)
	customerHandler := handler.NewCustomerHandler(d.customers, log)
	supplierHandler := handler.NewSupplierHandler(d.suppliers, log)
	saleHandler := handler.NewSaleHandler(d.sales, d.loc, log)
	ncfHandler := handler.NewNcfHandler(d.ncf, log)
	rncHandler := handler.NewRncHandler(d.rnc, log)
	purchaseHandler := handler.NewPurchaseHandler(d.purchases, d.loc, log)
	reportHandler := handler.NewReportHandler(d.reports, log)
	dashHandler := handler.NewDashboardHandler(d.dashboard, log)
	settingsHandler := handler.NewSettingsHandler(d.settings, log)
	auditHandler := handler.NewAuditHandler(d.audit, d.loc, log)
	deliveryHandler := handler.NewDeliveryHandler(d.delivery, log)
	whatsAppHandler := handler.NewWhatsAppHandler(d.whatsapp, log)

	requireAuth := middleware.RequireAuth(d.auth, d.cfg.Cookie.Name)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().In(d.loc)})
	})
	app.Get("/metrics", adaptor.HTTPHandler(d.metrics.Handler()))

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        d.cfg.HTTP.LoginRateLimit,
		Expiration: d.cfg.HTTP.LoginRateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Demasiados intentos de inicio de sesión, intente más tarde",
			})
		},
	}), authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Users, roles and privileges
	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.GetUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/", userHandler.CreateUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// Catalog
	protected.Get("/categories", middleware.RequirePrivilege(model.PrivProductView), catalogHandler.GetCategories)
	protected.Post("/categories", middleware.RequirePrivilege(model.PrivProductCreate), catalogHandler.CreateCategory)
	protected.Put("/categories/:id", middleware.RequirePrivilege(model.PrivProductUpdate), catalogHandler.UpdateCategory)
	protected.Delete("/categories/:id", middleware.RequirePrivilege(model.PrivProductDelete), catalogHandler.DeleteCategory)

	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), catalogHandler.GetProducts)
	protected.Get("/products/barcode/:code", middleware.RequirePrivilege(model.PrivProductView), catalogHandler.GetProductByBarcode)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), catalogHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), catalogHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), catalogHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), catalogHandler.DeleteProduct)

	// Inventory
	protected.Post("/inventory/movements", middleware.RequirePrivilege(model.PrivInventoryAdjust), invHandler.CreateMovement)
	protected.Get("/inventory/movements", middleware.RequirePrivilege(model.PrivInventoryView), invHandler.GetMovements)
	protected.Get("/inventory/low-stock", middleware.RequirePrivilege(model.PrivInventoryView), invHandler.GetLowStock)

	// Customers and suppliers
	protected.Get("/customers", middleware.RequirePrivilege(model.PrivCustomerView), customerHandler.GetCustomers)
	protected.Get("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerView), customerHandler.GetCustomer)
	protected.Post("/customers", middleware.RequirePrivilege(model.PrivCustomerCreate), customerHandler.CreateCustomer)
	protected.Put("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerUpdate), customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerDelete), customerHandler.DeleteCustomer)

	protected.Get("/suppliers", middleware.RequirePrivilege(model.PrivSupplierView), supplierHandler.GetSuppliers)
	protected.Get("/suppliers/:id", middleware.RequirePrivilege(model.PrivSupplierView), supplierHandler.GetSupplier)
	protected.Post("/suppliers", middleware.RequirePrivilege(model.PrivSupplierManage), supplierHandler.CreateSupplier)
	protected.Put("/suppliers/:id", middleware.RequirePrivilege(model.PrivSupplierManage), supplierHandler.UpdateSupplier)
	protected.Delete("/suppliers/:id", middleware.RequirePrivilege(model.PrivSupplierManage), supplierHandler.DeleteSupplier)

	// Sales
	protected.Get("/sales", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSales)
	protected.Post("/sales", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.CreateSale)
	protected.Get("/sales/:id", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSale)
	protected.Get("/sales/:id/receipt", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetReceipt)
	protected.Post("/sales/:id/cancel", middleware.RequireRole(model.RoleManager), middleware.RequirePrivilege(model.PrivSaleCancel), saleHandler.CancelSale)

	// NCF sequences
	protected.Get("/ncf/sequences", middleware.RequirePrivilege(model.PrivNcfView), ncfHandler.GetSequences)
	protected.Post("/ncf/sequences", adminOnly, ncfHandler.CreateSequence)
	protected.Put("/ncf/sequences/:id", adminOnly, ncfHandler.UpdateSequence)
	protected.Get("/ncf/status", middleware.RequirePrivilege(model.PrivNcfView), ncfHandler.GetStatus)
	protected.Get("/ncf/validate/:ncf", ncfHandler.Validate)

	// RNC registry
	protected.Get("/rnc/search", rncHandler.Search)
	protected.Get("/rnc/:rnc", rncHandler.Lookup)

	// Purchases
	protected.Get("/purchases", middleware.RequirePrivilege(model.PrivPurchaseView), purchaseHandler.GetPurchases)
	protected.Get("/purchases/:id", middleware.RequirePrivilege(model.PrivPurchaseView), purchaseHandler.GetPurchase)
	protected.Post("/purchases", middleware.RequirePrivilege(model.PrivPurchaseManage), purchaseHandler.CreatePurchase)
	protected.Put("/purchases/:id", middleware.RequirePrivilege(model.PrivPurchaseManage), purchaseHandler.UpdatePurchase)
	protected.Post("/purchases/:id/order", middleware.RequirePrivilege(model.PrivPurchaseManage), purchaseHandler.OrderPurchase)
	protected.Post("/purchases/:id/receive", middleware.RequirePrivilege(model.PrivPurchaseManage), purchaseHandler.ReceivePurchase)
	protected.Post("/purchases/:id/cancel", middleware.RequirePrivilege(model.PrivPurchaseManage), purchaseHandler.CancelPurchase)

	// DGII reports
	reports := protected.Group("/reports/dgii", middleware.RequireRole(model.RoleManager, model.RoleReporter))
	reports.Get("/607", reportHandler.Get607)
	reports.Get("/606", reportHandler.Get606)

	// Dashboard
	dash := protected.Group("/dashboard", middleware.RequirePrivilege(model.PrivDashboardView))
	dash.Get("/stats", dashHandler.GetDashboardStats)
	dash.Get("/sales-by-day", dashHandler.GetSalesByDay)
	dash.Get("/top-products", dashHandler.GetTopProducts)
	dash.Get("/payment-methods", dashHandler.GetPaymentMethods)
	dash.Get("/stock-movement", dashHandler.GetStockMovement)

	// Settings and audit
	protected.Get("/settings", settingsHandler.GetSettings)
	protected.Put("/settings", adminOnly, settingsHandler.UpdateSettings)
	protected.Post("/settings/logo", adminOnly, settingsHandler.UploadLogo)
	protected.Get("/audit-logs", adminOnly, auditHandler.GetAuditLogs)

	// Delivery
	protected.Get("/drivers", middleware.RequirePrivilege(model.PrivDeliveryView), deliveryHandler.GetDrivers)
	protected.Post("/drivers", middleware.RequirePrivilege(model.PrivDeliveryManage), deliveryHandler.CreateDriver)
	protected.Put("/drivers/:id", middleware.RequirePrivilege(model.PrivDeliveryManage), deliveryHandler.UpdateDriver)
	protected.Get("/deliveries", middleware.RequirePrivilege(model.PrivDeliveryView), deliveryHandler.GetDeliveries)
	protected.Get("/deliveries/:id", middleware.RequirePrivilege(model.PrivDeliveryView), deliveryHandler.GetDelivery)
	protected.Post("/deliveries", middleware.RequirePrivilege(model.PrivDeliveryManage), deliveryHandler.CreateDelivery)
	protected.Post("/deliveries/:id/assign", middleware.RequirePrivilege(model.PrivDeliveryManage), deliveryHandler.AssignDriver)
	protected.Put("/deliveries/:id/status", middleware.RequirePrivilege(model.PrivDeliveryManage), deliveryHandler.UpdateStatus)

	// WhatsApp
	wa := protected.Group("/whatsapp", middleware.RequirePrivilege(model.PrivWhatsAppSend))
	wa.Post("/send", whatsAppHandler.Send)
	wa.Post("/sales/:id/receipt", whatsAppHandler.SendReceipt)
	wa.Post("/broadcast", middleware.RequireRole(model.RoleManager), whatsAppHandler.Broadcast)
	wa.Get("/messages", whatsAppHandler.GetMessages)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		d.hub.Register <- c
		defer func() { d.hub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
