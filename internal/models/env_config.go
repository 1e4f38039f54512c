package models

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type EnvConfig struct {
	DatabaseURL  string
	Port         string
	IdentityURL  string
	ContentURL   string
	WordCacheTTL time.Duration
	Debug        bool
}

func ReadEnvConfig() EnvConfig {
	debug := os.Getenv("MODGUARD_DEBUG") == "true"
	port := os.Getenv("MODGUARD_PORT")
	if port == "" {
		port = "23496"
	}
	ttlSeconds, err := strconv.Atoi(os.Getenv("MODGUARD_WORD_CACHE_TTL"))
	if err != nil || ttlSeconds <= 0 {
		fmt.Println("Using default value for MODGUARD_WORD_CACHE_TTL")
		ttlSeconds = 30
	}
	return EnvConfig{
		DatabaseURL:  os.Getenv("MODGUARD_DATABASE_URL"),
		Port:         port,
		IdentityURL:  os.Getenv("MODGUARD_IDENTITY_URL"),
		ContentURL:   os.Getenv("MODGUARD_CONTENT_URL"),
		WordCacheTTL: time.Duration(ttlSeconds) * time.Second,
		Debug:        debug,
	}
}
