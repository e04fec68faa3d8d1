package routes

import (
	"github.com/gorilla/mux"

	"pcstore/controllers"
	"pcstore/middleware"
)

// Controllers bundles the handlers the router wires up.
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController
	Content  *controllers.ContentController
	Builder  *controllers.BuilderController
}

// RegisterRoutes sets up all the routes for the application.
func RegisterRoutes(router *mux.Router, c Controllers) {
	api := router.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/register", c.Users.Register).Methods("POST")
	api.HandleFunc("/auth/login", c.Users.Login).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/profile", c.Users.GetProfile).Methods("GET")

	// Product routes
	api.HandleFunc("/products", c.Products.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods("GET")

	adminProducts := api.PathPrefix("/products").Subrouter()
	adminProducts.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminProducts.HandleFunc("", c.Products.CreateProduct).Methods("POST")
	adminProducts.HandleFunc("/{id}", c.Products.UpdateProduct).Methods("PUT")
	adminProducts.HandleFunc("/{id}", c.Products.DeleteProduct).Methods("DELETE")

	// Cart routes. All require auth; ownership is enforced per handler.
	cart := api.PathPrefix("/cart").Subrouter()
	cart.Use(middleware.AuthMiddleware)
	cart.HandleFunc("/{userId}", c.Carts.GetCart).Methods("GET")
	cart.HandleFunc("/{userId}", c.Carts.UpdateCart).Methods("PUT")
	cart.HandleFunc("/{userId}", c.Carts.ClearCart).Methods("DELETE")
	cart.HandleFunc("/{userId}/add", c.Carts.AddToCart).Methods("POST")
	cart.HandleFunc("/{userId}/item/{cartItemId}", c.Carts.UpdateCartItem).Methods("PUT")
	cart.HandleFunc("/{userId}/item/{cartItemId}", c.Carts.RemoveFromCart).Methods("DELETE")
	cart.HandleFunc("/{userId}/sync", c.Carts.SyncCart).Methods("POST")
	cart.HandleFunc("/{userId}/validate", c.Carts.ValidateCart).Methods("POST")
	cart.HandleFunc("/{userId}/coupon", c.Carts.ApplyCoupon).Methods("POST")
	cart.HandleFunc("/{userId}/coupon", c.Carts.RemoveCoupon).Methods("DELETE")
	cart.HandleFunc("/{userId}/totals", c.Carts.GetCartTotals).Methods("POST")
	cart.HandleFunc("/{userId}/history", c.Carts.GetCartHistory).Methods("GET")

	// Order routes
	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.AuthMiddleware)
	orders.HandleFunc("", c.Orders.PlaceOrder).Methods("POST")
	orders.HandleFunc("/my", c.Orders.GetMyOrders).Methods("GET")
	orders.HandleFunc("/{id}", c.Orders.GetOrderByID).Methods("GET")
	orders.HandleFunc("/{id}/cancel", c.Orders.CancelOrder).Methods("POST")
	orders.HandleFunc("/{id}/pay", c.Payments.RecordPayment).Methods("POST")

	adminOrders := api.PathPrefix("/admin/orders").Subrouter()
	adminOrders.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminOrders.HandleFunc("", c.Orders.GetAllOrders).Methods("GET")
	adminOrders.HandleFunc("/stats", c.Orders.GetOrderStats).Methods("GET")
	adminOrders.HandleFunc("/{id}/status", c.Orders.UpdateOrderStatus).Methods("PUT")
	adminOrders.HandleFunc("/{id}/paid", c.Orders.MarkOrderAsPaid).Methods("PUT")
	adminOrders.HandleFunc("/{id}/delivered", c.Orders.MarkOrderAsDelivered).Methods("PUT")

	// PC builder routes. Open to anonymous sessions; a bearer token, when
	// present, attaches ownership.
	builder := api.PathPrefix("/pc-builder").Subrouter()
	builder.Use(middleware.OptionalAuthMiddleware)
	builder.HandleFunc("/components/{platform}", c.Builder.GetComponents).Methods("GET")
	builder.HandleFunc("/filters/{platform}", c.Builder.GetPlatformFilters).Methods("GET")
	builder.HandleFunc("/recommendations/{platform}", c.Builder.GetRecommendations).Methods("GET")
	builder.HandleFunc("/configurations", c.Builder.ListConfigurations).Methods("GET")
	builder.HandleFunc("/configuration", c.Builder.CreateConfiguration).Methods("POST")
	builder.HandleFunc("/configuration/{id}", c.Builder.GetConfiguration).Methods("GET")
	builder.HandleFunc("/configuration/{id}/component", c.Builder.AddComponent).Methods("POST")
	builder.HandleFunc("/configuration/{id}/component/{slot}", c.Builder.RemoveComponent).Methods("DELETE")
	builder.HandleFunc("/configuration/{id}/compatibility", c.Builder.CheckCompatibility).Methods("GET")

	adminBuilder := api.PathPrefix("/pc-builder").Subrouter()
	adminBuilder.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminBuilder.HandleFunc("/configuration/{id}/template", c.Builder.SaveAsTemplate).Methods("PUT")

	// Public content routes
	api.HandleFunc("/blogs", c.Content.GetBlogs).Methods("GET")
	api.HandleFunc("/blogs/{slug}", c.Content.GetBlogBySlug).Methods("GET")
	api.HandleFunc("/deals", c.Content.GetDeals).Methods("GET")
	api.HandleFunc("/events", c.Content.GetEvents).Methods("GET")
	api.HandleFunc("/testimonials", c.Content.GetTestimonials).Methods("GET")
	api.HandleFunc("/testimonials", c.Content.CreateTestimonial).Methods("POST")
	api.HandleFunc("/slides", c.Content.GetSlides).Methods("GET")

	// Admin content routes
	adminContent := api.PathPrefix("/admin").Subrouter()
	adminContent.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	adminContent.HandleFunc("/blogs", c.Content.GetBlogs).Methods("GET")
	adminContent.HandleFunc("/blogs", c.Content.CreateBlog).Methods("POST")
	adminContent.HandleFunc("/blogs/{id}", c.Content.UpdateBlog).Methods("PUT")
	adminContent.HandleFunc("/blogs/{id}", c.Content.DeleteBlog).Methods("DELETE")
	adminContent.HandleFunc("/deals", c.Content.CreateDeal).Methods("POST")
	adminContent.HandleFunc("/deals/{id}", c.Content.UpdateDeal).Methods("PUT")
	adminContent.HandleFunc("/deals/{id}", c.Content.DeleteDeal).Methods("DELETE")
	adminContent.HandleFunc("/events", c.Content.CreateEvent).Methods("POST")
	adminContent.HandleFunc("/events/{id}", c.Content.UpdateEvent).Methods("PUT")
	adminContent.HandleFunc("/events/{id}", c.Content.DeleteEvent).Methods("DELETE")
	adminContent.HandleFunc("/testimonials/{id}", c.Content.UpdateTestimonial).Methods("PUT")
	adminContent.HandleFunc("/testimonials/{id}", c.Content.DeleteTestimonial).Methods("DELETE")
	adminContent.HandleFunc("/slides", c.Content.CreateSlide).Methods("POST")
	adminContent.HandleFunc("/slides/{id}", c.Content.UpdateSlide).Methods("PUT")
	adminContent.HandleFunc("/slides/{id}", c.Content.DeleteSlide).Methods("DELETE")
}
