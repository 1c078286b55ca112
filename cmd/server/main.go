package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/orromotors/bus-seat-reservation/internal/config"
	"github.com/orromotors/bus-seat-reservation/internal/database"
	"github.com/orromotors/bus-seat-reservation/internal/gateway"
	"github.com/orromotors/bus-seat-reservation/internal/handler"
	"github.com/orromotors/bus-seat-reservation/internal/queue"
	"github.com/orromotors/bus-seat-reservation/internal/repository"
	"github.com/orromotors/bus-seat-reservation/internal/router"
	"github.com/orromotors/bus-seat-reservation/internal/scheduler"
	"github.com/orromotors/bus-seat-reservation/internal/service/notifier"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	seatRepo := repository.NewSeatRepo(db)
	tripRepo := repository.NewTripRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)

	notices := notifier.New(cfg.AMQPURL)
	wd := scheduler.New(seatRepo, notices, cfg.HoldTTL, cfg.HoldReminders, cfg.SweepEvery)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Recovery sweep: releases holds whose deadline passed while the
	// process was down or the in-memory timers were lost.
	go wd.Run(ctx)

	if cfg.AMQPURL == "" {
		log.Printf("no broker configured, notices disabled")
	} else {
		go func() {
			if err := queue.StartNoticeConsumer(cfg.AMQPURL); err != nil {
				log.Printf("notice consumer stopped: %v", err)
			}
		}()
	}

	paystack := gateway.NewPaystackClient("", cfg.PaystackSecretKey)

	seatHandler := handler.NewSeatHandler(seatRepo, tripRepo, paymentRepo, wd)
	paymentHandler := handler.NewPaymentHandler(seatRepo, bookingRepo, paymentRepo, userRepo, tripRepo, paystack, wd, notices)
	bookingHandler := handler.NewBookingHandler(bookingRepo)
	tripHandler := handler.NewTripHandler(tripRepo)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	rlCfg := config.LoadRateLimitConfig()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPublic(e, tripHandler, seatHandler)
	router.RegisterAPI(e, seatHandler, paymentHandler, bookingHandler, tripHandler, cfg.JWTSecret, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
