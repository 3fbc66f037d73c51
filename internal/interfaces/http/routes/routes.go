// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/domain/wishlist"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/interfaces/http/handlers"
	"github.com/farumdev/bookstore-backend/internal/interfaces/http/middleware"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies carries the shared infrastructure every service is built from.
// Redis may be nil.
type Dependencies struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Config    *config.Config
	Logger    *logrus.Logger
	Publisher events.Publisher
	Mailer    *email.EmailService
}

// services groups the domain services behind the HTTP handlers
type services struct {
	users     *user.Service
	addresses *user.AddressService
	admins    *user.AdminService
	products  *product.Service
	reviews   *product.ReviewService
	coupons   *coupon.Service
	carts     *cart.Service
	checkout  *checkout.Service
	orders    *order.Service
	payments  *payment.Service
	methods   *payment.MethodService
	wishlists *wishlist.Service
	pdf       *pdf.Service
}

func newServices(d Dependencies) *services {
	simulator := payment.NewSimulator(d.Config.Shop.PaymentLatency)
	return &services{
		users:     user.NewService(d.DB, d.Config, d.Redis, d.Logger),
		addresses: user.NewAddressService(d.DB, d.Logger),
		admins:    user.NewAdminService(d.DB, d.Config, d.Logger),
		products:  product.NewService(d.DB, d.Redis, d.Config, d.Logger),
		reviews:   product.NewReviewService(d.DB, d.Redis, d.Logger),
		coupons:   coupon.NewService(d.DB, d.Logger),
		carts:     cart.NewService(d.DB, d.Logger),
		checkout:  checkout.NewService(d.DB, d.Config, d.Publisher, d.Logger),
		orders:    order.NewService(d.DB, d.Config, d.Logger, d.Publisher, d.Mailer),
		payments:  payment.NewService(d.DB, simulator, d.Publisher, d.Mailer, d.Logger),
		methods:   payment.NewMethodService(d.DB, d.Logger),
		wishlists: wishlist.NewService(d.DB, product.NewRatingCache(d.DB, d.Redis, d.Logger), d.Logger),
		pdf:       pdf.NewService(d.Config),
	}
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, d Dependencies) {
	svc := newServices(d)
	requireAuth := middleware.AuthMiddleware(d.Config, svc.users)
	optionalAuth := middleware.OptionalAuthMiddleware(d.Config, svc.users)
	adminOnly := middleware.AdminMiddleware()

	authHandler := handlers.NewAuthHandler(svc.users, d.Config)
	rg.GET("/session", requireAuth, authHandler.GetSession)

	setupUserRoutes(rg, svc, d.Config, requireAuth, adminOnly)
	setupProductRoutes(rg, svc, requireAuth, optionalAuth, adminOnly)
	setupCouponRoutes(rg, svc, requireAuth, adminOnly)
	setupCartRoutes(rg, svc, requireAuth)
	setupOrderRoutes(rg, svc, requireAuth, adminOnly)
	setupPaymentRoutes(rg, svc, requireAuth, adminOnly)
	setupWishlistRoutes(rg, svc, requireAuth)
}

// setupUserRoutes sets up account, profile and admin user routes
func setupUserRoutes(rg *gin.RouterGroup, svc *services, cfg *config.Config, requireAuth, adminOnly gin.HandlerFunc) {
	authHandler := handlers.NewAuthHandler(svc.users, cfg)
	profileHandler := handlers.NewUserProfileHandler(svc.users)
	addressHandler := handlers.NewUserAddressHandler(svc.addresses)
	adminHandler := handlers.NewUserAdminHandler(svc.admins)

	users := rg.Group("/users")
	{
		// Public auth endpoints
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)

		protected := users.Group("")
		protected.Use(requireAuth)
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/:id", authHandler.GetUser)

			profile := protected.Group("/profile")
			{
				profile.GET("", profileHandler.GetProfile)
				profile.PUT("", profileHandler.UpdateProfile)
				profile.PUT("/change-password", profileHandler.ChangePassword)
				profile.GET("/addresses", addressHandler.GetAddresses)
				profile.POST("/addresses", addressHandler.AddAddress)
				profile.PUT("/addresses/:id", addressHandler.UpdateAddress)
				profile.DELETE("/addresses/:id", addressHandler.DeleteAddress)
				profile.PUT("/addresses/:id/set-default", addressHandler.SetDefaultAddress)
			}

			admin := protected.Group("/admin/users")
			admin.Use(adminOnly)
			{
				admin.GET("", adminHandler.GetUsers)
				admin.GET("/:id", adminHandler.GetUser)
				admin.PUT("/:id", adminHandler.UpdateUser)
				admin.POST("/:id/reset-password", adminHandler.ResetPassword)
			}
		}
	}
}

// setupProductRoutes sets up catalog, stock and review routes
func setupProductRoutes(rg *gin.RouterGroup, svc *services, requireAuth, optionalAuth, adminOnly gin.HandlerFunc) {
	productHandler := handlers.NewProductHandler(svc.products)
	reviewHandler := handlers.NewReviewHandler(svc.reviews)

	// Every product route names the product :id so gin's tree has one wildcard here
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/availability", productHandler.CheckAvailability)

		products.POST("", requireAuth, adminOnly, productHandler.CreateProduct)
		products.PUT("/:id", requireAuth, adminOnly, productHandler.UpdateProduct)
		products.DELETE("/:id", requireAuth, adminOnly, productHandler.DeleteProduct)
		products.PUT("/:id/stock", requireAuth, adminOnly, productHandler.SetStock)
		products.POST("/:id/stock/increase", requireAuth, adminOnly, productHandler.IncreaseStock)
		products.POST("/:id/stock/decrease", requireAuth, adminOnly, productHandler.DecreaseStock)

		products.GET("/:id/reviews", optionalAuth, reviewHandler.GetReviews)
		products.POST("/:id/reviews", requireAuth, reviewHandler.SaveReview)
		products.GET("/:id/reviews/:reviewId", optionalAuth, reviewHandler.GetReview)
		products.DELETE("/:id/reviews/:reviewId", requireAuth, reviewHandler.DeleteReview)
		products.PUT("/:id/reviews/:reviewId/moderate", requireAuth, adminOnly, reviewHandler.ModerateReview)
		products.GET("/:id/my-review", requireAuth, reviewHandler.GetMyReview)
	}

	rg.POST("/reviews/:reviewId/helpful", requireAuth, reviewHandler.ToggleHelpful)

	admin := rg.Group("/admin")
	admin.Use(requireAuth, adminOnly)
	{
		admin.GET("/reviews", reviewHandler.ListAllReviews)
	}
}

// setupCouponRoutes sets up coupon preview and administration routes
func setupCouponRoutes(rg *gin.RouterGroup, svc *services, requireAuth, adminOnly gin.HandlerFunc) {
	couponHandler := handlers.NewCouponHandler(svc.coupons)

	coupons := rg.Group("/coupons")
	{
		coupons.GET("/validate/:code", couponHandler.ValidateCoupon)

		admin := coupons.Group("/admin/coupons")
		admin.Use(requireAuth, adminOnly)
		{
			admin.GET("", couponHandler.GetCoupons)
			admin.POST("", couponHandler.CreateCoupon)
			admin.PUT("/:id", couponHandler.UpdateCoupon)
			admin.DELETE("/:id", couponHandler.DeleteCoupon)
			admin.GET("/:id/usage", couponHandler.GetCouponUsage)
		}
	}
}

// setupCartRoutes sets up cart routes
func setupCartRoutes(rg *gin.RouterGroup, svc *services, requireAuth gin.HandlerFunc) {
	cartHandler := handlers.NewCartHandler(svc.carts, svc.checkout)

	carts := rg.Group("/cart")
	carts.Use(requireAuth)
	{
		carts.GET("", cartHandler.GetCart)
		carts.DELETE("", cartHandler.ClearCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items/:id", cartHandler.UpdateCartItem)
		carts.DELETE("/items/:id", cartHandler.RemoveFromCart)
		carts.POST("/apply-coupon", cartHandler.ApplyCoupon)
		carts.DELETE("/remove-coupon", cartHandler.RemoveCoupon)
		carts.POST("/checkout", cartHandler.Checkout)
	}
}

// setupOrderRoutes sets up order, checkout and invoice routes
func setupOrderRoutes(rg *gin.RouterGroup, svc *services, requireAuth, adminOnly gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(svc.orders)
	checkoutHandler := handlers.NewCheckoutHandler(svc.checkout)
	invoiceHandler := handlers.NewInvoiceHandler(svc.orders, svc.pdf)

	orders := rg.Group("/orders")
	orders.Use(requireAuth) // All order routes require authentication
	{
		orders.POST("/create", checkoutHandler.CreateOrder)
		orders.POST("/place", checkoutHandler.PlaceOrder)

		orders.GET("", adminOnly, orderHandler.GetOrders)
		orders.GET("/my-orders", orderHandler.GetMyOrders)
		orders.GET("/pending", orderHandler.GetPendingOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.DELETE("/:id", adminOnly, orderHandler.DeleteOrder)
		orders.PUT("/:id/status", adminOnly, orderHandler.UpdateStatus)
		orders.DELETE("/:id/cancel", orderHandler.CancelOrder)

		orders.GET("/:id/invoice", invoiceHandler.GenerateInvoice)
		orders.GET("/:id/invoice/data", invoiceHandler.GetInvoiceData)
	}
}

// setupPaymentRoutes sets up payment and payment method routes
func setupPaymentRoutes(rg *gin.RouterGroup, svc *services, requireAuth, adminOnly gin.HandlerFunc) {
	paymentHandler := handlers.NewPaymentHandler(svc.payments)
	methodHandler := handlers.NewPaymentMethodHandler(svc.methods)

	payments := rg.Group("/payments")
	payments.Use(requireAuth)
	{
		payments.POST("/process", paymentHandler.ProcessPayment)
		payments.GET("/transactions", paymentHandler.GetMyTransactions)
		payments.GET("/transactions/:id", paymentHandler.GetTransaction)
		payments.GET("/status/:transaction_id", paymentHandler.GetStatus)

		payments.POST("/refund", adminOnly, paymentHandler.Refund)
		payments.GET("/admin/transactions", adminOnly, paymentHandler.GetAllTransactions)
		payments.GET("/admin/statistics", adminOnly, paymentHandler.GetStatistics)
	}

	methods := rg.Group("/payment-methods")
	methods.Use(requireAuth)
	{
		methods.GET("", methodHandler.GetMethods)
		methods.POST("", methodHandler.AddMethod)
		methods.GET("/:id", methodHandler.GetMethod)
		methods.PUT("/:id", methodHandler.UpdateMethod)
		methods.DELETE("/:id", methodHandler.DeleteMethod)
		methods.PUT("/:id/set-default", methodHandler.SetDefault)
	}
}

// setupWishlistRoutes sets up wishlist routes
func setupWishlistRoutes(rg *gin.RouterGroup, svc *services, requireAuth gin.HandlerFunc) {
	wishlistHandler := handlers.NewWishlistHandler(svc.wishlists)

	wishlists := rg.Group("/wishlist")
	wishlists.Use(requireAuth)
	{
		wishlists.GET("", wishlistHandler.GetWishlist)
		wishlists.DELETE("", wishlistHandler.ClearWishlist)
		wishlists.GET("/count", wishlistHandler.GetWishlistCount)
		wishlists.GET("/check/:productId", wishlistHandler.CheckWishlist)
		wishlists.POST("/items/:productId", wishlistHandler.AddToWishlist)
		wishlists.DELETE("/items/:productId", wishlistHandler.RemoveFromWishlist)
		wishlists.POST("/move-to-cart", wishlistHandler.MoveToCart)
	}
}
