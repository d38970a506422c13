// Command config prints the effective jobchat configuration, for checking a .env before deploy.
package main

import (
	"fmt"
	"log"

	"jobchat/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	secret := "(unset)"
	if cfg.JWTSecret != "" {
		secret = fmt.Sprintf("(%d chars)", len(cfg.JWTSecret))
	}

	fmt.Printf("env:            %s\n", cfg.GoEnv)
	fmt.Printf("http port:      %d\n", cfg.HTTPPort)
	fmt.Printf("db pool:        %d open / %d idle, auto-migrate=%t\n", cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBAutoMigrate)
	fmt.Printf("redis:          %s (job cache ttl %s)\n", cfg.RedisURL, cfg.JobCacheTTL)
	fmt.Printf("auth mode:      %s, jwt secret %s\n", cfg.AuthMode, secret)
	fmt.Printf("chat:           page %d, %.2f msg/s burst %d\n", cfg.ChatPageDefault, cfg.ChatMessageRate, cfg.ChatMessageBurst)
	fmt.Printf("log:            %s/%s\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Printf("cors origins:   %v\n", cfg.CORSOrigins)
}
