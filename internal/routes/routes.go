package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/cache"
	"github.com/example/electioncart/internal/config"
	"github.com/example/electioncart/internal/events"
	"github.com/example/electioncart/internal/gateway"
	"github.com/example/electioncart/internal/handlers"
	"github.com/example/electioncart/internal/middleware"
	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
	"github.com/example/electioncart/internal/storage"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	store, err := storage.NewLocalStore(cfg.MediaRoot)
	if err != nil {
		log.Fatalf("failed to initialize media storage: %v", err)
	}

	var gatewayClient gateway.Client
	if razorpay := gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret); razorpay.Enabled() {
		gatewayClient = razorpay
	}

	producer := events.NewTaskProducer(cfg.KafkaBrokers, cfg.KafkaTaskTopic)
	analyticsCache := cache.NewAnalytics(cfg.RedisAddr, cfg.RedisPassword, cache.DefaultTTL)

	notifySvc := services.NewNotificationService(db, cfg.TelegramBotToken, cfg.TelegramAdminChat)
	checklistSvc := services.NewChecklistService(db)
	lifecycleSvc := services.NewLifecycleService(db, checklistSvc, notifySvc, gatewayClient, analyticsCache)
	paymentSvc := services.NewPaymentService(db, gatewayClient, lifecycleSvc, notifySvc, producer, analyticsCache)
	resourceSvc := services.NewResourceService(db, store, producer, lifecycleSvc)
	analyticsSvc := services.NewAnalyticsService(db, analyticsCache)
	invoiceSvc := services.NewInvoiceService(db, producer)

	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db, resourceSvc)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, lifecycleSvc, paymentSvc, resourceSvc, checklistSvc, invoiceSvc)
	adminHandler := handlers.NewAdminHandler(db, lifecycleSvc, paymentSvc, resourceSvc, analyticsSvc)
	staffHandler := handlers.NewStaffHandler(db, lifecycleSvc)
	notificationHandler := handlers.NewNotificationHandler(db)

	app.Static("/media", cfg.MediaRoot)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	packages := api.Group("/packages")
	packages.Get("/", productHandler.ListPackages)
	packages.Get("/:id", productHandler.GetPackage)

	campaigns := api.Group("/campaigns")
	campaigns.Get("/", productHandler.ListCampaigns)
	campaigns.Get("/:id", productHandler.GetCampaign)

	api.Get("/products/:type/:id/resource-fields", productHandler.ListResourceFields)

	// Authenticated customer surface
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.Get)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:itemId", cartHandler.UpdateItem)
	cart.Delete("/items/:itemId", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.Clear)

	orders := protected.Group("/orders")
	orders.Post("/checkout", orderHandler.Checkout)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)
	orders.Post("/:id/verify-payment", orderHandler.VerifyPayment)
	orders.Get("/:id/upload-status", orderHandler.UploadStatus)
	orders.Get("/:id/checklist", orderHandler.Checklist)
	orders.Get("/:id/payments", orderHandler.Payments)
	orders.Post("/:id/invoice", orderHandler.RequestInvoice)
	orders.Post("/items/:itemId/resources", orderHandler.SubmitResources)
	orders.Post("/items/:itemId/resources/legacy", orderHandler.SubmitLegacyResources)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	// Staff surface
	staff := protected.Group("/staff", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	staff.Get("/orders", staffHandler.MyOrders)
	staff.Post("/orders/:id/start", staffHandler.StartWork)
	staff.Post("/orders/:id/hold", staffHandler.HoldOrder)
	staff.Put("/checklist-items/:itemId", staffHandler.UpdateChecklistItem)

	// Admin surface
	admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/revenue/daily", adminHandler.DailyRevenue)

	admin.Get("/orders", adminHandler.ListOrders)
	admin.Post("/orders/manual", adminHandler.CreateManualOrder)
	admin.Put("/orders/:id/status", adminHandler.OverrideStatus)
	admin.Put("/orders/:id/assign", adminHandler.AssignOrder)
	admin.Post("/orders/:id/payments", adminHandler.RecordPayment)

	admin.Post("/packages", adminHandler.CreatePackage)
	admin.Put("/packages/:id", adminHandler.UpdatePackage)
	admin.Post("/campaigns", adminHandler.CreateCampaign)
	admin.Put("/campaigns/:id", adminHandler.UpdateCampaign)

	admin.Post("/resource-fields", adminHandler.CreateResourceField)
	admin.Put("/resource-fields/reorder", adminHandler.ReorderResourceFields)
	admin.Put("/resource-fields/:id", adminHandler.UpdateResourceField)
	admin.Delete("/resource-fields/:id", adminHandler.DeleteResourceField)

	admin.Get("/checklist-templates", adminHandler.ListTemplateItems)
	admin.Post("/checklist-templates", adminHandler.CreateTemplateItem)
	admin.Delete("/checklist-templates/:id", adminHandler.DeleteTemplateItem)

	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Get("/staff", adminHandler.ListStaff)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
}
