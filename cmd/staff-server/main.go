package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quote-desk-backend/internal/api"
	"quote-desk-backend/internal/api/router"
	"quote-desk-backend/internal/database"
	"quote-desk-backend/internal/env"
	"quote-desk-backend/internal/feed"
	"quote-desk-backend/internal/jwt"
	"quote-desk-backend/internal/queue"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/dashboard"
	"quote-desk-backend/internal/service/notification"
	"quote-desk-backend/internal/service/quotation"
	"quote-desk-backend/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
)

const poolIdentity = "admin"

func main() {
	env.Load()
	if err := env.Validate(env.AWSRegion, env.StaffSecretKey, env.FeedRedisURL, env.AdminIdentities); err != nil {
		log.Fatal(err)
	}
	jwt.LoadSecrets()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	redisClient := feed.NewRedisClient()
	defer redisClient.Close()
	publisher := feed.NewPublisher(redisClient)

	chatService := chat.New(db, publisher, chat.Options{
		PoolIdentity:       poolIdentity,
		ContinuationWindow: env.GetDuration(env.ContinuationWindow, chat.DefaultContinuationWindow),
		EditWindow:         env.GetDuration(env.EditWindow, chat.DefaultEditWindow),
	})
	systemIdentity := env.GetOrDefault(env.SystemIdentity, poolIdentity)
	dispatcher := notification.New(systemIdentity, poolIdentity, chatService.Orderer())
	quotationService := quotation.New(db, publisher, dispatcher)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// unread counters are written back off the aggregator goroutine
	persist := queue.NewSerialQueue("unread-persist", 256)
	defer persist.Shutdown()

	admins := env.GetList(env.AdminIdentities)
	aggregator := dashboard.New(dashboard.Config{
		Admins:         admins,
		PoolIdentity:   poolIdentity,
		SystemIdentity: systemIdentity,
		RetainApplied:  env.GetInt(env.AppliedRetention, dashboard.DefaultRetainApplied),
		Registerer:     prometheus.DefaultRegisterer,
		OnChange: func(c dashboard.Change) {
			hub.PushChange(c, admins)
			if c.Removed {
				return
			}
			summary := c.Summary.Clone()
			err := persist.EnqueueJob(queue.Job{Fn: func() error {
				if err := chatService.SaveUnreadCounts(context.Background(), summary); err != nil {
					log.Printf("persist unread counts for %s: %v", summary.ConversationID, err)
				}
				return nil
			}})
			if err != nil {
				log.Printf("persist unread counts for %s: %v", summary.ConversationID, err)
			}
		},
	})
	defer aggregator.Close()

	subscriber := feed.NewSubscriber(redisClient)
	consumed, err := aggregator.Follow(ctx, subscriber.WatchAll, chatService.Summaries)
	if err != nil {
		log.Fatalf("dashboard start failed: %v", err)
	}
	go func() {
		if err := <-consumed; err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("dashboard consumer stopped: %v", err)
		}
	}()
	log.Printf("dashboard seeded and following the feed")

	corsOrigins := env.GetList(env.CORSOrigins)
	server := api.NewAPIServer(
		env.GetOrDefault(env.StaffAddr, ":81"),
		queue.NewRequestQueueManager(64, 10),
		corsOrigins,
		router.UtilsRoutes("/api/staff/v1"),
		router.StaffRoutes("/api/staff/v1", router.StaffServices{
			Chat:       chatService,
			Quotations: quotationService,
			Dashboard:  aggregator,
			Sockets:    websocket.NewHandler(hub, aggregator, corsOrigins),
		}),
	)

	if err := server.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
