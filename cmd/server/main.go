package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-punch-server/breaks"
	"github.com/jrsteele09/go-punch-server/dispatch"
	"github.com/jrsteele09/go-punch-server/internal/config"
	"github.com/jrsteele09/go-punch-server/punchlog"
	"github.com/jrsteele09/go-punch-server/report"
	"github.com/jrsteele09/go-punch-server/server"
	"github.com/jrsteele09/go-punch-server/sessions"
	"github.com/jrsteele09/go-punch-server/telegram"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	displayAppname(cfg.AppName)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := punchlog.OpenDB(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening punch log: %w", err)
	}
	defer db.Close()
	store := punchlog.NewStore(db, loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := breaks.Default()
	guard := sessions.NewGuard(cfg.LockTimeout)
	registry := sessions.NewRegistry()
	counters := sessions.NewDailyCounters(store)
	writer := sessions.NewLogWriter(store, 256)
	writer.Start(ctx)

	engine := sessions.NewEngine(catalog, registry, counters, guard, store, writer, loc,
		sessions.WithSoftCapBytes(cfg.RegistrySoftCapBytes))
	if err := engine.Rebuild(ctx, time.Now()); err != nil {
		// A cold start with an unreachable store still serves traffic; the
		// reconciler restores open breaks once the store is back.
		log.Printf("Cold-start replay failed: %v\n", err)
	}

	reconciler := sessions.NewReconciler(registry, store, guard, catalog, loc,
		sessions.WithReconcilerGrace(cfg.GraceMinutes))
	engine.SetCapacityReconciler(func(ctx context.Context) { reconciler.RunLocked(ctx) })

	bot := telegram.New(cfg.BotToken)
	dispatcher := dispatch.New(engine, catalog, bot)
	sweeper := sessions.NewSweeper(engine, dispatcher, cfg.GraceMinutes, loc)
	reporter := report.New(store, bot, loc)

	go reconciler.Start(ctx, cfg.ReconcileInterval)
	go sweeper.Start(ctx, cfg.SweepInterval)
	go reporter.RunDailyAt(ctx, cfg.ReportHour)
	go runMonthlyArchive(ctx, store, loc)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.New(cfg, dispatcher, engine, reconciler, store, loc),
	}
	go listenAndServe(httpServer)
	waitForStopSignal()
	// In-flight requests enqueue durable writes, so the HTTP server must
	// drain before the writer's worker stops.
	shutdownErr := shutdown(httpServer)
	cancel()
	writer.Wait()
	return shutdownErr
}

// runMonthlyArchive prunes closed entries older than the current month into
// the archive table, checking once a day.
func runMonthlyArchive(ctx context.Context, store *punchlog.Store, loc *time.Location) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().In(loc)
			cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).Format(sessions.DateLayout)
			moved, err := store.ArchiveBefore(ctx, cutoff, now)
			if err != nil {
				log.Printf("Monthly archive failed: %v\n", err)
				continue
			}
			if moved > 0 {
				log.Printf("Archived %d punch log rows older than %s\n", moved, cutoff)
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
