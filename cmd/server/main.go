package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nordmark-digital/portal/internal/config"
	"github.com/nordmark-digital/portal/internal/database"
	"github.com/nordmark-digital/portal/internal/handler"
	"github.com/nordmark-digital/portal/internal/mailer"
	mw "github.com/nordmark-digital/portal/internal/middleware"
	"github.com/nordmark-digital/portal/internal/queue"
	"github.com/nordmark-digital/portal/internal/repository"
	"github.com/nordmark-digital/portal/internal/router"
	notifier "github.com/nordmark-digital/portal/internal/service"
)

func init() {
	// Load environment variables from .env file when present.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()
	if err := database.EnsureSchema(initCtx, db); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	users := repository.NewUserRepo(db)
	codes := repository.NewLoginCodeRepo(db)
	sessions := repository.NewSessionRepo(db)
	contacts := repository.NewContactRepo(db)

	mail := &mailer.SMTP{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
	events := &notifier.Publisher{}

	// Best-effort event sink; runs its own reconnect loop.
	go func() {
		if err := queue.StartPortalConsumer(); err != nil {
			log.Printf("portal consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient() // nil disables the throttle
	if rdb == nil {
		log.Println("Warning: redis unavailable, request throttle disabled")
	}
	throttle := mw.Throttle(config.LoadThrottleConfig(), rdb)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	authH := handler.NewAuthHandler(cfg, users, codes, sessions, mail, events)
	contactH := handler.NewContactHandler(cfg, contacts, mail, events)
	adminH := handler.NewAdminHandler(users)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, sessions, throttle)
	router.RegisterContact(e, contactH, throttle)
	router.RegisterAdmin(e, adminH, sessions)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown on interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
