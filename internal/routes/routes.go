package routes

import (
	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/handlers"
	"astromania_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, payments *handlers.PaymentHandler) {
	api := r.Group("/api")

	// Paiements : le cœur du checkout
	pay := api.Group("/payments")
	pay.POST("/create-preference", payments.CreatePreference)
	pay.POST("/notification", payments.Notification)
	pay.GET("/status/:paymentId", payments.Status)
	pay.GET("/order/:externalReference", payments.OrderByReference)
	pay.GET("/success", payments.SuccessReturn)
	pay.GET("/failure", payments.FailureReturn)
	pay.GET("/pending", payments.PendingReturn)

	// Panier (session via X-Session-ID)
	api.GET("/cart", handlers.GetCart)
	api.POST("/cart/add", handlers.AddToCart)
	api.DELETE("/cart", handlers.ClearCart)
	api.DELETE("/cart/:referenceId", handlers.RemoveFromCart)

	// Catalogue produits & services
	api.GET("/products", handlers.GetAllProducts)
	api.GET("/products/search", handlers.SearchProducts)
	api.GET("/products/:id", handlers.GetProductByID)
	api.POST("/products", handlers.CreateProduct)
	api.PUT("/products/:id", handlers.UpdateProduct)
	api.DELETE("/products/:id", handlers.DeleteProduct)
	api.POST("/products/:id/images", handlers.UploadProductImage)

	// Calendrier d'événements
	api.GET("/events", handlers.GetAllEvents)
	api.GET("/events/:id", handlers.GetEventByID)
	api.POST("/events", handlers.CreateEvent)
	api.PUT("/events/:id", handlers.UpdateEvent)
	api.DELETE("/events/:id", handlers.DeleteEvent)

	// Formulaire de contact
	api.POST("/contact", middleware.ContactRateLimit(), handlers.CreateContact)
}
