package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stagelink/internal/config"
	"github.com/iliyamo/stagelink/internal/database"
	"github.com/iliyamo/stagelink/internal/handler"
	"github.com/iliyamo/stagelink/internal/mailer"
	"github.com/iliyamo/stagelink/internal/middleware"
	"github.com/iliyamo/stagelink/internal/paymongo"
	"github.com/iliyamo/stagelink/internal/queue"
	"github.com/iliyamo/stagelink/internal/repository"
	"github.com/iliyamo/stagelink/internal/router"
	"github.com/iliyamo/stagelink/internal/service"
)

// paymentTaskTimeout bounds one in-process payment run.
const paymentTaskTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment wins
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables caching and rate limiting
	if rdb != nil {
		defer rdb.Close()
	}

	// Repositories
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	collabs := repository.NewCollaborationRepo(db)
	notifications := repository.NewNotificationRepo(db)
	payments := repository.NewPaymentRepo(db)
	tickets := repository.NewTicketRepo(db)
	shows := repository.NewShowRepo(db)
	webhookEvents := repository.NewWebhookEventRepo(db)

	mail := mailer.NewClient(cfg.ResendAPIKey, cfg.ResendAPIURL, cfg.EmailFrom)
	if !mail.Enabled() {
		log.Printf("mailer: RESEND_API_KEY not set; emails are disabled")
	}

	// Services
	collabSvc := &service.CollaborationService{
		Profiles:      profiles,
		Requests:      collabs,
		Notifications: notifications,
		Accounts:      accounts,
		Mail:          mail,
		SiteURL:       cfg.SiteURL,
	}
	processor := &service.PaymentProcessor{
		Payments:      payments,
		Tickets:       tickets,
		Profiles:      profiles,
		Shows:         shows,
		Notifications: notifications,
		Events:        webhookEvents,
		Mail:          mail,
		SiteURL:       cfg.SiteURL,
	}
	ticketSvc := &service.TicketService{Profiles: profiles, Payments: payments, Tickets: tickets}
	if cfg.PaymongoKey != "" {
		ticketSvc.Checkouts = paymongo.NewClient(cfg.PaymongoKey, cfg.PaymongoURL)
		ticketSvc.Issue = processor.Process
	} else {
		log.Printf("PAYMONGO_SECRET_KEY not set; claims cannot recover missing tickets")
	}

	runner := service.NewBackgroundRunner(paymentTaskTimeout)
	dispatcher := &service.PaymentDispatcher{Runner: runner, Process: processor.Process}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AMQPURL != "" {
		dispatcher.Publisher = queue.NewPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartPaymentConsumer(ctx, cfg.AMQPURL, processor.Process); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("payment-worker: stopped: %v", err)
			}
		}()
	} else {
		log.Printf("payment-worker: no broker configured; processing payments in-process")
	}
	if cfg.WebhookSecret == "" {
		log.Printf("paymongo-webhook: PAYMONGO_WEBHOOK_SECRET not set; webhook requests will fail")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	debug := !cfg.IsProduction()

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, tokens, profiles), cfg.JWTSecret, limit)
	router.RegisterCollaboration(e, handler.NewCollaborationHandler(collabSvc, debug), cfg.JWTSecret, limit)
	router.RegisterMember(e,
		handler.NewTicketHandler(ticketSvc, debug),
		handler.NewNotificationHandler(notifications, profiles),
		cfg.JWTSecret)
	router.RegisterWebhooks(e, handler.NewWebhookHandler(paymongo.NewVerifier(cfg.WebhookSecret), dispatcher))
	router.RegisterPublic(e, handler.NewPublicHandler(shows), cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if !runner.Wait(shutdownCtx) {
		log.Printf("payment-worker: in-process tasks still running at exit")
	}
}
