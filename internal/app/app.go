package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncwave/server/internal/controller"
	"github.com/syncwave/server/internal/registry"
	"github.com/syncwave/server/internal/repository/connection/inmemory"
	"github.com/syncwave/server/internal/service/room"
	"github.com/syncwave/server/internal/service/streaming"
	"github.com/syncwave/server/pkg/ctxlogger"
)

type AppConfig struct {
	Host                string        `json:"host"`
	Port                int           `json:"port"`
	LogLevel            string        `json:"log_level"`
	CodeRetries         int           `json:"code_retries"`
	DeviceSweepInterval time.Duration `json:"device_sweep_interval"`
	RoomSweepInterval   time.Duration `json:"room_sweep_interval"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.DeviceSweepInterval <= 0 {
		return fmt.Errorf("device sweep interval must be positive")
	}
	if cfg.RoomSweepInterval <= 0 {
		return fmt.Errorf("room sweep interval must be positive")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	roomRegistry := registry.New(logger, cfg.CodeRetries)
	connRepo := inmemory.NewRepo()

	chunkSender := controller.NewChunkSender(connRepo, logger)
	coordinator := streaming.NewCoordinator(roomRegistry, chunkSender, logger)
	roomRegistry.OnRoomRemoved(coordinator.ReleaseRoom)

	roomService := room.NewService(roomRegistry, connRepo, coordinator, logger)
	ctrl := controller.NewController(roomService, coordinator, logger)

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.Mux()}

	serverCtx, serverStopCtx := context.WithCancel(ctx)

	// liveness sweeps run on their own schedule, independent of request flow
	go func() {
		deviceTicker := time.NewTicker(cfg.DeviceSweepInterval)
		roomTicker := time.NewTicker(cfg.RoomSweepInterval)
		defer deviceTicker.Stop()
		defer roomTicker.Stop()

		for {
			select {
			case <-serverCtx.Done():
				return
			case <-deviceTicker.C:
				roomService.SweepInactiveDevices(serverCtx)
			case <-roomTicker.C:
				roomService.SweepEmptyRooms(serverCtx)
			}
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
