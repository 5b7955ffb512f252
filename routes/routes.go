package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kitchenviz/controllers"
	"kitchenviz/metrics"
	"kitchenviz/middleware"
)

func RegisterRoutes(r *gin.Engine, orders *controllers.OrderController) {

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello from kitchenviz backend!")
	})
	r.GET("/metrics", metrics.Handler())

	user := r.Group("/user")
	{
		user.POST("/register", controllers.Register)
		user.POST("/login", controllers.Login)
		user.POST("/logout", controllers.Logout)
	}

	category := r.Group("/category")
	{
		category.GET("", controllers.GetCategories)
		category.GET("/:id", controllers.GetCategoryByID)
		category.POST("", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controllers.CreateCategory)
	}

	product := r.Group("/product")
	{
		product.GET("", controllers.GetProducts)
		product.GET("/:id", controllers.GetProductByID)

		admin := product.Group("", middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.POST("", controllers.CreateProduct)
			admin.PUT("/:id", controllers.UpdateProduct)
			admin.DELETE("/:id", controllers.DeleteProduct)
		}
	}

	slider := r.Group("/slider")
	{
		slider.GET("", controllers.GetAllSliders)

		admin := slider.Group("", middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.POST("", controllers.CreateSlider)
			admin.PUT("/:id", controllers.UpdateSlider)
			admin.DELETE("/:id", controllers.DeleteSlider)
		}
	}

	order := r.Group("/order")
	{
		order.POST("", middleware.OptionalAuth(), orders.PlaceOrder)
		order.GET("/check-status", orders.CheckPaymentStatus)
		order.GET("/payment-status", orders.PaymentRedirect)
		order.GET("/:id", orders.GetOrderByID)

		admin := order.Group("", middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.GET("/admin", orders.ListOrders)
			admin.PATCH("/updateStatus/:id", orders.UpdateOrderStatus)
			admin.PATCH("/updateShippingStatus/:id", orders.UpdateShippingStatus)
		}
	}
}
