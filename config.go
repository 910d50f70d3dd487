package main

import (
	"time"

	"github.com/spf13/viper"
)

type config struct {
	Port         string
	DatabasePath string
	ContentPath  string
	LogLevel     string

	AdminUsername string
	AdminPassword string

	GateDelay     time.Duration
	SubmitLatency time.Duration
	SubmitTimeout time.Duration

	SessionTTL  time.Duration
	MaxSessions int

	// Submissions allowed per minute per visitor, and the burst on top.
	ContactPerMinute int
	ContactBurst     int

	VisitorRetention time.Duration
}

// loadConfig reads settings from the environment. .env is already applied by
// godotenv/autoload.
func loadConfig() config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "portfolio.db")
	v.SetDefault("CONTENT_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("CONTACT_GATE_DELAY", "3s")
	v.SetDefault("CONTACT_LATENCY", "2s")
	v.SetDefault("CONTACT_TIMEOUT", "10s")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_MAX", 4096)
	v.SetDefault("CONTACT_RATE_PER_MIN", 5)
	v.SetDefault("CONTACT_BURST", 3)
	v.SetDefault("VISITOR_RETENTION", "8760h")

	return config{
		Port:             v.GetString("PORT"),
		DatabasePath:     v.GetString("DATABASE_PATH"),
		ContentPath:      v.GetString("CONTENT_PATH"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		GateDelay:        v.GetDuration("CONTACT_GATE_DELAY"),
		SubmitLatency:    v.GetDuration("CONTACT_LATENCY"),
		SubmitTimeout:    v.GetDuration("CONTACT_TIMEOUT"),
		SessionTTL:       v.GetDuration("SESSION_TTL"),
		MaxSessions:      v.GetInt("SESSION_MAX"),
		ContactPerMinute: v.GetInt("CONTACT_RATE_PER_MIN"),
		ContactBurst:     v.GetInt("CONTACT_BURST"),
		VisitorRetention: v.GetDuration("VISITOR_RETENTION"),
	}
}
