package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string
	DatabasePath    string
	ShutdownTimeout time.Duration
	LogLevel        string
	OpenHour        int
	CloseHour       int
}

func Load() (Config, error) {
	// Local-dev convenience; a missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLINICDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.path", "clinicdesk.db")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("hours.open", 9)
	v.SetDefault("hours.close", 17)

	_ = v.BindEnv("http.addr", "CLINICDESK_HTTP_ADDR", "HTTP_ADDR")
	_ = v.BindEnv("database.path", "CLINICDESK_DATABASE_PATH", "DATABASE_PATH")
	_ = v.BindEnv("shutdown.timeout", "CLINICDESK_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "CLINICDESK_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("hours.open", "CLINICDESK_OPEN_HOUR", "OPEN_HOUR")
	_ = v.BindEnv("hours.close", "CLINICDESK_CLOSE_HOUR", "CLOSE_HOUR")

	timeout, err := time.ParseDuration(v.GetString("shutdown.timeout"))
	if err != nil {
		return Config{}, err
	}

	openHour := v.GetInt("hours.open")
	closeHour := v.GetInt("hours.close")
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return Config{}, fmt.Errorf("invalid business hours %d-%d", openHour, closeHour)
	}

	return Config{
		HTTPAddr:        strings.TrimSpace(v.GetString("http.addr")),
		DatabasePath:    v.GetString("database.path"),
		ShutdownTimeout: timeout,
		LogLevel:        v.GetString("log.level"),
		OpenHour:        openHour,
		CloseHour:       closeHour,
	}, nil
}
