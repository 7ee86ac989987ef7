// Package config provides configuration management for the application
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Booking BookingConfig
	Kafka   KafkaConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis/Valkey configuration
type RedisConfig struct {
	Enabled bool
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string
	Host      string
	Port      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// BookingConfig holds the admission rules
type BookingConfig struct {
	// GranularityMinutes is the unit every booking duration must be a multiple of
	GranularityMinutes int
	// LockTTL bounds how long a distributed admission lock may be held
	LockTTL time.Duration
	// LockWait bounds how long a submission waits for its room/date lock
	LockWait time.Duration
	// OpeningMinute and ClosingMinute delimit the free windows reported for a day
	OpeningMinute int
	ClosingMinute int
	// SubmitRatePerMinute and SubmitBurst limit booking submissions per requester
	SubmitRatePerMinute int
	SubmitBurst         int
}

// KafkaConfig holds booking event publishing settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Enabled returns true if at least one broker is configured
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Load reads configuration from environment variables, falling back to defaults
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			IdleTimeout:     v.GetDuration("HTTP_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("REDIS_ENABLED"),
			URI:       v.GetString("REDIS_URI_ROOMBOOKING"),
			Host:      firstNonEmpty(v.GetString("REDIS_HOST_ROOMBOOKING"), v.GetString("REDIS_ADDRESS"), "localhost"),
			Port:      v.GetString("REDIS_PORT_ROOMBOOKING"),
			Username:  v.GetString("REDIS_USERNAME_ROOMBOOKING"),
			Password:  firstNonEmpty(v.GetString("REDIS_PASSWORD_ROOMBOOKING"), v.GetString("REDIS_PASSWORD")),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Booking: BookingConfig{
			GranularityMinutes:  v.GetInt("BOOKING_GRANULARITY_MINUTES"),
			LockTTL:             v.GetDuration("BOOKING_LOCK_TTL"),
			LockWait:            v.GetDuration("BOOKING_LOCK_WAIT"),
			SubmitRatePerMinute: v.GetInt("BOOKING_SUBMIT_RATE_PER_MINUTE"),
			SubmitBurst:         v.GetInt("BOOKING_SUBMIT_BURST"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_BOOKING_TOPIC"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	opening, err := clockMinute(v.GetString("BOOKING_OPENING_TIME"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BOOKING_OPENING_TIME: %w", err)
	}
	closing, err := clockMinute(v.GetString("BOOKING_CLOSING_TIME"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BOOKING_CLOSING_TIME: %w", err)
	}
	cfg.Booking.OpeningMinute = opening
	cfg.Booking.ClosingMinute = closing

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail at first use
func (c Config) Validate() error {
	if c.Booking.GranularityMinutes <= 0 || 24*60%c.Booking.GranularityMinutes != 0 {
		return fmt.Errorf("BOOKING_GRANULARITY_MINUTES must divide a day, got %d", c.Booking.GranularityMinutes)
	}
	if c.Booking.OpeningMinute >= c.Booking.ClosingMinute {
		return fmt.Errorf("booking opening time must be before closing time")
	}
	if c.Booking.LockTTL <= 0 || c.Booking.LockWait <= 0 {
		return fmt.Errorf("BOOKING_LOCK_TTL and BOOKING_LOCK_WAIT must be positive")
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_BOOKING_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_PORT_ROOMBOOKING", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "roombooking:")

	v.SetDefault("BOOKING_GRANULARITY_MINUTES", 5)
	v.SetDefault("BOOKING_LOCK_TTL", 10*time.Second)
	v.SetDefault("BOOKING_LOCK_WAIT", 5*time.Second)
	v.SetDefault("BOOKING_OPENING_TIME", "08:00")
	v.SetDefault("BOOKING_CLOSING_TIME", "22:00")
	v.SetDefault("BOOKING_SUBMIT_RATE_PER_MINUTE", 30)
	v.SetDefault("BOOKING_SUBMIT_BURST", 5)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "roombooking.booking-events")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// clockMinute parses "HH:MM" without importing models, keeping config a leaf package
func clockMinute(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		if strings.TrimSpace(s) == "24:00" {
			return 24 * 60, nil
		}
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
