package routes

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/handlers"
	"foodcourt_back_end/internal/handlers/admin"
	"foodcourt_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	// CORS pour le front (liste d'origines dans CORS_ORIGINS)
	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")

	// --- Authentification ---
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Register)
	auth.POST("/login", middleware.LoginRateLimit(), handlers.Login)
	auth.POST("/logout", handlers.Logout)
	auth.GET("/me", middleware.AuthRequired(), handlers.Me)
	auth.GET("/:provider", handlers.BeginAuth)
	auth.GET("/:provider/callback", handlers.CallbackAuth)

	// --- Menu (public) ---
	api.GET("/menu", handlers.ListMenu)
	api.GET("/menu/search", handlers.SearchMenu)
	api.GET("/menu/:id", handlers.GetMenuItem)
	api.POST("/menu/:id/rate", middleware.AuthRequired(), handlers.RateMenuItem)

	// --- Panier ---
	cart := api.Group("/cart", middleware.AuthRequired())
	cart.GET("", handlers.GetCart)
	cart.POST("", handlers.AddToCart)
	cart.PUT("/items/:id", handlers.UpdateCartItem)
	cart.DELETE("/items/:id", handlers.RemoveFromCart)
	cart.DELETE("/clear", handlers.ClearCart)

	// --- Commandes ---
	orders := api.Group("/orders", middleware.AuthRequired())
	orders.POST("", handlers.Checkout)
	orders.GET("", handlers.ListMyOrders)
	orders.GET("/:id", handlers.GetOrderByID)
	orders.POST("/:id/cancel", handlers.CancelOrder)
	orders.GET("/:id/receipt", handlers.OrderReceipt)

	// --- Back office ---
	adminGroup := api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin)
	adminGroup.POST("/menu", admin.CreateMenuItem)
	adminGroup.PUT("/menu/:id", admin.UpdateMenuItem)
	adminGroup.DELETE("/menu/:id", admin.DeleteMenuItem)
	adminGroup.POST("/menu/:id/image", admin.UploadMenuImage)
	adminGroup.POST("/search/reindex", admin.ReindexMenu)
	adminGroup.GET("/orders", admin.ListOrders)
	adminGroup.GET("/orders/statuses", admin.ListOrderStatuses)
	adminGroup.PUT("/orders/:id/status", admin.UpdateOrderStatus)
	adminGroup.PUT("/users/:id/admin", admin.SetAdmin)
}
