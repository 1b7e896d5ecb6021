package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncwave/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	codeRetries = configVar[int]{
		envKey:       "SERVER_CODE_RETRIES",
		flagKey:      "code-retries",
		defaultValue: 10,
	}
	deviceSweepInterval = configVar[time.Duration]{
		envKey:       "SERVER_DEVICE_SWEEP_INTERVAL",
		flagKey:      "device-sweep-interval",
		defaultValue: 30 * time.Second,
	}
	roomSweepInterval = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_SWEEP_INTERVAL",
		flagKey:      "room-sweep-interval",
		defaultValue: 5 * time.Minute,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(codeRetries.flagKey, codeRetries.defaultValue, "Maximum retries when generating a room code")
	pflag.Duration(deviceSweepInterval.flagKey, deviceSweepInterval.defaultValue, "How often inactive devices are marked disconnected")
	pflag.Duration(roomSweepInterval.flagKey, roomSweepInterval.defaultValue, "How often empty rooms are reclaimed")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(codeRetries.flagKey, codeRetries.envKey)
	viper.BindEnv(deviceSweepInterval.flagKey, deviceSweepInterval.envKey)
	viper.BindEnv(roomSweepInterval.flagKey, roomSweepInterval.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(codeRetries.flagKey, codeRetries.defaultValue)
	viper.SetDefault(deviceSweepInterval.flagKey, deviceSweepInterval.defaultValue)
	viper.SetDefault(roomSweepInterval.flagKey, roomSweepInterval.defaultValue)

	return &app.AppConfig{
		Host:                viper.GetString(host.flagKey),
		Port:                viper.GetInt(port.flagKey),
		LogLevel:            viper.GetString(logLevel.flagKey),
		CodeRetries:         viper.GetInt(codeRetries.flagKey),
		DeviceSweepInterval: viper.GetDuration(deviceSweepInterval.flagKey),
		RoomSweepInterval:   viper.GetDuration(roomSweepInterval.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
