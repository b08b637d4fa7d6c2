package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crediario/config"
	"crediario/controllers"
	"crediario/database"
	"crediario/services"
	"crediario/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func initCollectionScheduler(cfg *config.Config, facade *services.Facade) *services.CollectionSchedulerService {
	if !cfg.Collection.Enabled {
		return nil
	}
	if !cfg.SMTPEnabled() {
		utils.LogInfo("SMTP is not configured, overdue notices are disabled")
		return nil
	}

	scheduler := facade.NewCollectionScheduler(cfg.Collection.Schedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start collection scheduler: %v", err)
	}
	return scheduler
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := utils.InitLoggers(cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize loggers: %v", err)
	}

	decimal.MarshalJSONWithoutQuotes = true

	db := database.NewDatabase(cfg)
	emailService := services.NewEmailService(cfg)
	facade := services.NewFacade(db, emailService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := facade.Open(ctx); err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer facade.Close()

	scheduler := initCollectionScheduler(cfg, facade)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           controllers.NewRouter(cfg, facade),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
}
