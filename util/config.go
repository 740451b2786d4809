package util

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	defaultPort      = "3000"
	defaultStaticDir = "./public"
	defaultRoomTTL   = 12 * time.Hour
	defaultLogLevel  = "info"
)

type Config struct {
	Host                 string        `env:"HOST"`
	Port                 string        `env:"PORT" validate:"required,number"`
	StaticDir            string        `env:"STATIC_DIR" validate:"required"`
	AllowedOrigins       []string      `env:"ALLOWED_ORIGINS" validate:"dive,required"`
	RedisAddress         string        `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword        string        `env:"REDIS_PW"`
	RedisDB              int           `env:"REDIS_DB" validate:"gte=0"`
	RoomDirectoryTTL     time.Duration `env:"ROOM_DIRECTORY_TTL" validate:"gt=0"`
	NotifyPeerDisconnect bool          `env:"NOTIFY_PEER_DISCONNECT"`
	LogLevel             string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// RedisEnabled reports whether the room directory mirror should be started.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

func LoadConfig() (*Config, error) {
	// a missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	InitValidator()

	config := &Config{
		Host:           os.Getenv("HOST"),
		Port:           getenv("PORT", defaultPort),
		StaticDir:      getenv("STATIC_DIR", defaultStaticDir),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		RedisAddress:   os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PW"),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", defaultLogLevel)),
	}

	var err error

	if config.RedisDB, err = strconv.Atoi(getenv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	if config.RoomDirectoryTTL, err = time.ParseDuration(getenv("ROOM_DIRECTORY_TTL", defaultRoomTTL.String())); err != nil {
		return nil, fmt.Errorf("ROOM_DIRECTORY_TTL: %w", err)
	}

	if config.NotifyPeerDisconnect, err = strconv.ParseBool(getenv("NOTIFY_PEER_DISCONNECT", "false")); err != nil {
		return nil, fmt.Errorf("NOTIFY_PEER_DISCONNECT: %w", err)
	}

	if err := Validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(ValidationMessages(err), "; "))
	}

	return config, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(item string, index int) string {
		return strings.TrimSpace(item)
	})

	return lo.Filter(parts, func(item string, index int) bool {
		return item != ""
	})
}
