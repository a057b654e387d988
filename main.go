package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/worklog-dashboard/modules/api"
	"github.com/example/worklog-dashboard/modules/audit"
	"github.com/example/worklog-dashboard/modules/auth"
	"github.com/example/worklog-dashboard/modules/cache"
	"github.com/example/worklog-dashboard/modules/dashboard"
	"github.com/example/worklog-dashboard/modules/ledger"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Worklog Dashboard ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	dashboardModule := dashboard.NewModule()

	// The summary cache is an optimization, not part of the contract: it is
	// wired only when a Redis address is configured.
	var cacheModule *cache.CacheModule
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cacheModule = cache.NewModule(redisAddr)
	}

	// Order: independent modules first, then dependent modules.
	app.Register(auth.NewModule())
	app.Register(ledger.NewModule())
	if cacheModule != nil {
		app.Register(cacheModule)
		dashboardModule.UseCacheFrom(cacheModule)
	}
	app.Register(dashboardModule)
	app.Register(audit.NewModule())
	app.Register(api.NewModule())

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000, Bearer token required):")
	log.Println("  POST   /api/v1/entries       - Log a unit of work")
	log.Println("  GET    /api/v1/entries       - List entries (cursor paging)")
	log.Println("  GET    /api/v1/entries/:id   - Fetch one entry")
	log.Println("  PATCH  /api/v1/entries/:id   - Patch an entry")
	log.Println("  GET    /api/v1/dashboard     - Bucketed summary (day/week/month)")
	log.Println("  GET    /health               - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
