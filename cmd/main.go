package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/josva12/Mpesa-PaySTK/internal/config"
	"github.com/josva12/Mpesa-PaySTK/internal/daraja"
	"github.com/josva12/Mpesa-PaySTK/internal/db"
	"github.com/josva12/Mpesa-PaySTK/internal/handlers"
	"github.com/josva12/Mpesa-PaySTK/internal/middleware"
	"github.com/josva12/Mpesa-PaySTK/internal/observability"
	"github.com/josva12/Mpesa-PaySTK/internal/services"
	"github.com/josva12/Mpesa-PaySTK/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("Successfully connected to MongoDB")

	transactionStore := store.NewMongoStore(client.Database(cfg.MongoDatabase))
	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := transactionStore.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	metrics := observability.NewMetrics()
	gateway := daraja.NewClient(cfg)
	paymentService := services.NewPaymentService(gateway, transactionStore, cfg, metrics)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	healthHandler := handlers.NewHealthHandler(client)

	requireAPIToken := middleware.RequireAPIToken(cfg.APIToken)
	requireCallbackToken := middleware.RequireCallbackToken(cfg.CallbackToken)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)

	router.Handle("/initiate_payment",
		metrics.WrapHandler("initiate_payment",
			requireAPIToken(http.HandlerFunc(paymentHandler.InitiatePayment)))).Methods("POST")
	router.Handle("/callback",
		metrics.WrapHandler("callback",
			requireCallbackToken(http.HandlerFunc(paymentHandler.Callback)))).Methods("POST")
	router.Handle("/transactions",
		metrics.WrapHandler("transactions",
			requireAPIToken(http.HandlerFunc(paymentHandler.GetTransactions)))).Methods("GET")
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      gorillahandlers.LoggingHandler(os.Stdout, router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout + 10*time.Second,
	}
	log.Printf("Server running on %s (%s environment)", cfg.HTTPAddr, cfg.APIEnvironment)
	log.Fatal(server.ListenAndServe())
}
