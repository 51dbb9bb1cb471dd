package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// GoogleBooksAPIKey is the optional API key for the Google Books volumes endpoint
	GoogleBooksAPIKey string
	// Debug enables debug level logging
	Debug bool
)

// CoverSettings tunes the cover resolution pipeline.
type CoverSettings struct {
	ValidateTimeout time.Duration
	RequestTimeout  time.Duration
	MinImageBytes   int64
	MaxAttempts     int
	BackoffBase     time.Duration
	Concurrency     int

	// GoogleBooksPerMinute paces Google Books searches, 0 disables pacing
	GoogleBooksPerMinute int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr           string
	MaxUploadBytes int64
	RatePerMinute  int
	RatePerDay     int
	Burst          int
	AllowedOrigins []string
}

// Period is the inclusive date range used when listing books read.
type Period struct {
	Start string
	End   string
}

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("covers.validate_timeout", "5s")
	viper.SetDefault("covers.request_timeout", "10s")
	viper.SetDefault("covers.min_image_bytes", 1000)
	viper.SetDefault("covers.max_attempts", 3)
	viper.SetDefault("covers.backoff_base", "1s")
	viper.SetDefault("covers.concurrency", 0)
	viper.SetDefault("covers.googlebooks_per_minute", 0)

	viper.SetDefault("server.addr", ":5001")
	viper.SetDefault("server.max_upload_bytes", 16*1024*1024)
	viper.SetDefault("server.rate_per_minute", 10)
	viper.SetDefault("server.rate_per_day", 100)
	viper.SetDefault("server.burst", 10)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	viper.SetDefault("period.start", "2024-01-01")
	viper.SetDefault("period.end", "2024-12-31")
}

// InitConfig initializes the global configuration
func InitConfig() {
	SetDefaults()

	GoogleBooksAPIKey = viper.GetString("googlebooks.apikey")
	Debug = viper.GetBool("debug")
}

// Covers returns the cover pipeline settings from viper.
func Covers() CoverSettings {
	return CoverSettings{
		ValidateTimeout: viper.GetDuration("covers.validate_timeout"),
		RequestTimeout:  viper.GetDuration("covers.request_timeout"),
		MinImageBytes:   viper.GetInt64("covers.min_image_bytes"),
		MaxAttempts:     viper.GetInt("covers.max_attempts"),
		BackoffBase:     viper.GetDuration("covers.backoff_base"),
		Concurrency:     viper.GetInt("covers.concurrency"),

		GoogleBooksPerMinute: viper.GetInt("covers.googlebooks_per_minute"),
	}
}

// Server returns the HTTP API settings from viper.
func Server() ServerSettings {
	return ServerSettings{
		Addr:           viper.GetString("server.addr"),
		MaxUploadBytes: viper.GetInt64("server.max_upload_bytes"),
		RatePerMinute:  viper.GetInt("server.rate_per_minute"),
		RatePerDay:     viper.GetInt("server.rate_per_day"),
		Burst:          viper.GetInt("server.burst"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
	}
}

// ReadingPeriod returns the configured reporting period.
func ReadingPeriod() Period {
	return Period{
		Start: viper.GetString("period.start"),
		End:   viper.GetString("period.end"),
	}
}
