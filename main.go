package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"

	"github.com/example/knights-meet-server/modules/api"
	"github.com/example/knights-meet-server/modules/broadcast"
	"github.com/example/knights-meet-server/modules/presence"
	"github.com/example/knights-meet-server/modules/rooms"
	"github.com/example/knights-meet-server/modules/signaling"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	roomsModule := rooms.NewModule()
	broadcastModule := broadcast.NewModule()
	presenceModule := presence.NewModule()

	// The relay sits on the hot path between the WebSocket read loops and
	// the hub, so it is wired directly rather than through the service
	// container.
	relay := signaling.NewRelay(roomsModule, broadcastModule.Hub())
	apiModule := api.NewModule(relay)
	apiModule.SetHub(broadcastModule.Hub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - rooms: room registry + lifecycle event emitter
	// - broadcast: WebSocket hub and per-client write pumps
	// - presence: lifecycle event consumer + stats service
	// - api: Fiber HTTP/WebSocket server, depends on presence
	for _, m := range []mono.Module{roomsModule, broadcastModule, presenceModule, apiModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register module %s: %v", m.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				slog.Info("graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	slog.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}

// setupLogger configures the default slog logger from LOG_LEVEL.
func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	slog.Info("meeting signaling server started", "port", port)
	slog.Info("endpoints",
		"health", "GET /health",
		"stats", "GET /api/v1/stats",
		"signaling", "GET /ws",
		"client", "GET /")
}
