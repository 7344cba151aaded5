// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/linkpulse-backend/internal/broadcast"
	"github.com/unclebandit/linkpulse-backend/internal/controller"
	"github.com/unclebandit/linkpulse-backend/internal/db"
	"github.com/unclebandit/linkpulse-backend/internal/handler"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
	"github.com/unclebandit/linkpulse-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	accountRepo := &repository.AccountRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	eventRepo := &repository.EventRepository{DB: db.DB}
	failureRepo := &repository.FailureRepository{DB: db.DB}

	// Broadcast: AMQP fan-out when configured, in-process otherwise
	var publisher broadcast.Publisher
	if url := os.Getenv("AMQP_URL"); url != "" {
		amqpPub, err := broadcast.NewAMQPPublisher(url)
		if err != nil {
			log.Fatal("failed to connect to AMQP broker:", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		log.Println("⚠️ AMQP_URL not set, using in-memory broadcast")
		publisher = broadcast.NewInMemoryBroker()
	}

	resolver := &service.ResolverService{
		AccountRepo:  accountRepo,
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		EventRepo:    eventRepo,
		Broadcast:    publisher,
	}
	fault := service.NewFaultService(resolver, failureRepo)
	analytics := &service.AnalyticsService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		EventRepo:    eventRepo,
	}

	webhookController := &controller.WebhookController{Fault: fault}
	analyticsController := &controller.AnalyticsController{Analytics: analytics}
	failureHandler := &handler.FailureHandler{Repo: failureRepo}
	accountHandler := &handler.AccountHandler{Repo: accountRepo}

	r := chi.NewRouter()

	// Webhook intake
	r.Post("/hooks/{routingKey}", webhookController.Receive)

	// Analytics
	r.Get("/campaigns/{id}/summary", analyticsController.CampaignSummary)
	r.Get("/campaigns/{id}/series", analyticsController.CampaignSeries)
	r.Get("/campaigns/{id}/contacts/{externalID}/status", analyticsController.ContactStatus)
	r.Get("/accounts/{id}/summary", analyticsController.AccountSummary)
	r.Get("/accounts/{id}/series", analyticsController.AccountSeries)
	r.Get("/tenants/{id}/summary", analyticsController.TenantSummary)
	r.Get("/tenants/{id}/series", analyticsController.TenantSeries)
	r.Get("/tenants/{id}/accounts", accountHandler.ListByTenant)

	// Operator tooling
	r.Get("/failures", failureHandler.ListArchives)
	r.Get("/notifications", failureHandler.ListNotifications)
	r.Post("/failures/resolve", failureHandler.ResolveArchives)
	r.Post("/notifications/resolve", failureHandler.ResolveNotifications)
	r.Delete("/failures/{id}", failureHandler.DeleteArchive)
	r.Post("/failures/purge", failureHandler.Purge)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
