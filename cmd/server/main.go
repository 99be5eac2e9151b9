/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the installment engine server: SQLite store,
  engine, HTTP router, and the cron-driven late-fee sweep scheduler, with
  graceful shutdown on SIGINT/SIGTERM.

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080)
  -db              SQLite database path (default: plans.db, ":memory:" ok)
  -sweep-schedule  cron expression for the late-fee sweep (default: @daily)
  -sweep-disabled  disable the background sweep

SEE ALSO:
  - api/server.go: router configuration
  - store/sqlite/sqlite.go: database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/installment-engine/api"
	"github.com/warp/installment-engine/plan"
	"github.com/warp/installment-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "plans.db", "SQLite database path")
	sweepSchedule := flag.String("sweep-schedule", "@daily", "cron expression for the late-fee sweep")
	sweepDisabled := flag.Bool("sweep-disabled", false, "disable the background late-fee sweep")
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	engine := plan.NewEngine(store, plan.SystemClock{})
	handler := api.NewHandler(engine)

	scheduler := api.NewSweepScheduler(handler.Sweep, store)
	scheduler.Schedule = *sweepSchedule
	scheduler.Enabled = !*sweepDisabled
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("failed to start sweep scheduler")
	}
	defer scheduler.Stop()

	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", *port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}
