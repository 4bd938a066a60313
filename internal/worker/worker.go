// Package worker runs the background jobs: the expiry sweep that reconciles
// pending bookings whose reservation lease ran out.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"tripcore/config"
	bookingService "tripcore/internal/domains/booking/service"
	"tripcore/shared/constant"
)

type ServerState int

const (
	ServerStateReady ServerState = iota + 1
	ServerStateInGracePeriod
	ServerStateInCleanupPeriod
)

type Worker struct {
	Config   *config.Config
	Bookings bookingService.Lifecycle

	State ServerState
	cron  *cron.Cron
}

func New(cfg *config.Config, bookings bookingService.Lifecycle) *Worker {
	return &Worker{
		Config:   cfg,
		Bookings: bookings,
	}
}

// Run schedules the sweep and blocks until the process is signalled.
func (w *Worker) Run() {
	w.State = ServerStateReady
	w.setupGracefulShutdown()

	w.cron = cron.New()

	schedule := fmt.Sprintf("@every %ds", w.Config.Booking.SweepIntervalSeconds)

	_, err := w.cron.AddFunc(schedule, w.sweep)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", schedule).Msg("Failed to schedule expiry sweep")
	}

	log.Info().Str("schedule", schedule).Msg("Expiry sweep scheduled.")

	w.cron.Run()
}

func (w *Worker) sweep() {
	ctx := context.WithValue(context.Background(), constant.ContextKeyActor, constant.ActorSystem)

	expired, err := w.Bookings.ExpireOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")

		return
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("expiry sweep reconciled overdue bookings")
	}
}

func (w *Worker) setupGracefulShutdown() {
	serverStateCh := make(chan os.Signal, 1)

	signal.Notify(serverStateCh, os.Interrupt, syscall.SIGTERM)

	go w.respondToSigterm(serverStateCh)
}

func (w *Worker) respondToSigterm(done chan os.Signal) {
	<-done

	defer os.Exit(0)

	if w.Config.Server.Env == "development" {
		log.Warn().Msg("Received SIGTERM. Shutting down now.")

		return
	}

	shutdownConfig := w.Config.Server.Shutdown

	log.Info().Msg("Received SIGTERM.")
	log.Info().Int64("seconds", shutdownConfig.GracePeriodSeconds).Msg("Entering grace period.")

	w.State = ServerStateInGracePeriod

	time.Sleep(time.Duration(shutdownConfig.GracePeriodSeconds) * time.Second)

	log.Info().Int64("seconds", shutdownConfig.CleanupPeriodSeconds).Msg("Entering cleanup period.")

	w.State = ServerStateInCleanupPeriod

	// let an in-flight sweep finish before the process exits
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Duration(shutdownConfig.CleanupPeriodSeconds) * time.Second):
	}

	log.Info().Msg("Cleanup period is over. Shutting down now.")
}
