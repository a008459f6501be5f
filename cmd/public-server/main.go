package main

import (
	"context"
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
	"quote-desk-backend/internal/service/notification"
	"quote-desk-backend/internal/service/quotation"
)

const poolIdentity = "admin"

func main() {
	env.Load()
	if err := env.Validate(env.AWSRegion, env.CustomerSecretKey, env.FeedRedisURL); err != nil {
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
	dispatcher := notification.New(env.GetOrDefault(env.SystemIdentity, poolIdentity), poolIdentity, chatService.Orderer())

	server := api.NewAPIServer(
		env.GetOrDefault(env.PublicAddr, ":82"),
		queue.NewRequestQueueManager(64, 10),
		env.GetList(env.CORSOrigins),
		router.UtilsRoutes("/api/public/v1"),
		router.CustomerRoutes("/api/public/v1", router.CustomerServices{
			Chat:       chatService,
			Quotations: quotation.New(db, publisher, dispatcher),
		}),
	)

	if err := server.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
