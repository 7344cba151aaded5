// cmd/worker/main.go
//
// Maintenance worker: purges resolved failure artifacts on a cron
// schedule and tails the resolved-events broadcast exchange.
package main

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/unclebandit/linkpulse-backend/internal/broadcast"
	"github.com/unclebandit/linkpulse-backend/internal/db"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

const defaultRetentionDays = 30

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()
	failureRepo := &repository.FailureRepository{DB: db.DB}

	retentionDays := defaultRetentionDays
	if v := os.Getenv("FAILURE_RETENTION_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			retentionDays = parsed
		}
	}

	c := cron.New()
	_, err := c.AddFunc("@daily", func() {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		purged, err := failureRepo.PurgeOlderThan(cutoff)
		if err != nil {
			log.Println("⚠️ purge failed:", err)
			return
		}
		log.Printf("🧹 purged %d resolved failure records older than %d days\n", purged, retentionDays)
	})
	if err != nil {
		log.Fatal("failed to schedule purge:", err)
	}
	c.Start()
	defer c.Stop()

	if url := os.Getenv("AMQP_URL"); url != "" {
		consumeBroadcast(url)
	}

	log.Println("Worker running...")
	select {}
}

// consumeBroadcast tails the resolver's fanout exchange and logs each
// appended event for operators.
func consumeBroadcast(url string) {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}

	err = ch.ExchangeDeclare(
		broadcast.TopicResolvedEvents,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatal("Failed to declare exchange:", err)
	}

	q, err := ch.QueueDeclare(
		"worker_resolved_events", // name
		true,                     // durable
		false,                    // delete when unused
		false,                    // exclusive
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	if err := ch.QueueBind(q.Name, "", broadcast.TopicResolvedEvents, false, nil); err != nil {
		log.Fatal("Failed to bind queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	go func() {
		for d := range msgs {
			var env broadcast.Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				log.Println("Invalid envelope:", err)
				d.Ack(false)
				continue
			}

			log.Printf("📩 event %d (%s) campaign=%d contact=%d\n", env.EventID, env.Kind, env.CampaignID, env.ContactID)
			d.Ack(false)
		}
	}()
}
