package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dishdash/api"
	"dishdash/config"
	"dishdash/pkg/events"
	"dishdash/pkg/logger"
	"dishdash/pkg/mailer"
	"dishdash/pkg/push"
	"dishdash/pkg/queue"
	"dishdash/service"
	"dishdash/storage/postgres"
	"dishdash/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	q, err := queue.Connect(cfg, log)
	if err != nil {
		log.Error("failed to connect to rabbitmq", logger.Error(err))
		os.Exit(1)
	}
	defer q.Close()

	ev := events.New(cfg, log)
	defer ev.Close()

	pushSender, err := push.New(cfg.PushBotToken, log)
	if err != nil {
		log.Error("failed to initialize push sender", logger.Error(err))
		os.Exit(1)
	}

	smtpSender, err := mailer.NewSMTPSender(cfg)
	if err != nil {
		log.Error("failed to initialize smtp sender", logger.Error(err))
		os.Exit(1)
	}
	mail := mailer.New(smtpSender, log)

	svc := service.New(pgStore, q, ev, cfg, log)
	server := api.NewServer(svc, pgStore, ev, cfg, log)
	w := worker.New(q, pgStore, pushSender, mail, cfg, log)

	storefrontSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.AppPort),
		Handler: server.Router(),
	}
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.AdminAppPort),
		Handler: server.AdminRouter(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("storefront server listening", logger.Int("port", cfg.AppPort))
		if err := storefrontSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("admin server listening", logger.Int("port", cfg.AdminAppPort))
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return w.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sErr := storefrontSrv.Shutdown(shutdownCtx)
		aErr := adminSrv.Shutdown(shutdownCtx)
		if sErr != nil {
			return sErr
		}
		return aErr
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("service shut down cleanly")
}
