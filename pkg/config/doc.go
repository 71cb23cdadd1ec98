// Package config loads application configuration from environment variables
// into annotated structs.
//
// It combines github.com/joho/godotenv (optional .env file loading) with
// github.com/caarlos0/env/v11 (struct tag parsing) and caches every loaded
// configuration type so the parsing work happens at most once per process.
//
// Usage:
//
//	type BillingConfig struct {
//	    APIKey        string `env:"PADDLE_API_KEY,required"`
//	    WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
//	}
//
//	var cfg BillingConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Sentinel errors (ErrParsingConfig, ErrNilPointer) can be matched with
// errors.Is.
package config
