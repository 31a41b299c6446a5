package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mahmutissiz-creator/libraTech/internal/config"
	"github.com/mahmutissiz-creator/libraTech/internal/handlers"
	"github.com/mahmutissiz-creator/libraTech/internal/repositories"
	"github.com/mahmutissiz-creator/libraTech/internal/services"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	bookRepo := repositories.NewBookRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	catalogService := services.NewCatalogService(db, bookRepo, studentRepo, txnRepo)
	circulationService := services.NewCirculationService(db, bookRepo, studentRepo, txnRepo)

	router := gin.Default()

	handlers.RegisterRoutes(router, catalogService, circulationService, cfg.Circulation.DefaultLoanDays)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
