package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/stagepass/seat-reservation/internal/config"
	"github.com/stagepass/seat-reservation/internal/database"
	"github.com/stagepass/seat-reservation/internal/handler"
	"github.com/stagepass/seat-reservation/internal/queue"
	"github.com/stagepass/seat-reservation/internal/repository"
	"github.com/stagepass/seat-reservation/internal/router"
	"github.com/stagepass/seat-reservation/internal/scheduler"
	"github.com/stagepass/seat-reservation/internal/service"
)

func main() {
	// .env is a convenience for local runs; deployed environments set
	// real variables and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(database.Config{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, caching and rate limiting disabled")
	}

	posts := repository.NewPostRepo(db)
	schedules := repository.NewScheduleRepo(db)
	options := repository.NewTicketOptionRepo(db)
	reservations := repository.NewReservationRepo(db)
	links := repository.NewReservationSeatRepo(db)
	seats := repository.NewSeatRepo(db)

	locker := service.NewSeatLocker(seats)
	svc := service.NewReservationService(posts, schedules, options, reservations, links, seats, locker)

	reclaimer := scheduler.NewReclaimer(seats, cfg.SweepInterval, cfg.OrphanGrace)
	if err := reclaimer.Start(); err != nil {
		log.Fatalf("reclaimer: %v", err)
	}
	defer reclaimer.Stop()

	go queue.StartReservationConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		Health:      handler.NewHealthHandler(db),
		Browse:      handler.NewBrowseHandler(svc),
		Reservation: handler.NewReservationHandler(svc),
		Manage:      handler.NewManagementHandler(svc, locker),
		JWTSecret:   cfg.JWTSecret,
		Redis:       rdb,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
	_ = e.Close()
}
