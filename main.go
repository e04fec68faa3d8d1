package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"pcstore/controllers"
	"pcstore/models"
	"pcstore/routes"
	"pcstore/store"
	"pcstore/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(os.Getenv("JWT_SECRET"))
	if len(utils.JwtKey) == 0 {
		log.Fatal("JWT_SECRET is required")
	}

	// Connect to MongoDB
	client := utils.ConnectDB()
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()
	db := client.Database(utils.DatabaseName())

	// Stores
	products := store.NewProducts(db)
	carts := store.NewCarts(db)
	histories := store.NewCartHistories(db)
	orders := store.NewOrders(db)
	payments := store.NewPayments(db)
	builds := store.NewBuilds(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := carts.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	if err := histories.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart history indexes: %v", err)
	}
	if err := orders.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create order indexes: %v", err)
	}
	if err := builds.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create build indexes: %v", err)
	}

	// Email service
	emailService := utils.NewEmailService()

	// Controllers
	c := routes.Controllers{
		Users:    controllers.NewUserController(client, utils.DatabaseName()),
		Products: controllers.NewProductController(products),
		Carts:    controllers.NewCartController(carts, histories, products, models.DefaultCoupons()),
		Orders:   controllers.NewOrderController(orders, products, carts, histories, emailService),
		Payments: controllers.NewPaymentController(orders, payments),
		Content:  controllers.NewContentController(client, utils.DatabaseName()),
		Builder:  controllers.NewBuilderController(builds, products, products),
	}

	// Router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, c)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.Printf("Server is running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
