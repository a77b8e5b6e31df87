package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"RUN_ADDRESS", "DATABASE_URI", "JWT_SECRET", "TOKEN_EXPIRATION", "REDIS_ADDRESS",
	"REDIS_PASSWORD", "REDIS_DB", "LOG_LEVEL", "RATING_CACHE_TTL", "DELIVERY_INTERVAL",
}

// resetEnv очищает окружение и возвращает функцию восстановления.
func resetEnv(t *testing.T) {
	t.Helper()
	originalArgs := os.Args
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		if v, ok := os.LookupEnv(key); ok {
			originalEnv[key] = v
		}
		os.Unsetenv(key)
	}

	t.Cleanup(func() {
		os.Args = originalArgs
		for _, key := range envVars {
			os.Unsetenv(key)
		}
		for key, value := range originalEnv {
			os.Setenv(key, value)
		}
		flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		envVars      map[string]string
		wantAddress  string
		wantDBURI    string
		wantRedis    string
		wantSecret   string
		wantTokenExp time.Duration
		wantLevel    string
	}{
		{
			name:         "default values",
			args:         []string{"cmd"},
			wantAddress:  "localhost:8080",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 24 * time.Hour,
			wantLevel:    "info",
		},
		{
			name:         "flags only",
			args:         []string{"cmd", "-a", "localhost:9090", "-d", "postgresql://db", "-r", "localhost:6379", "-t", "36h", "-l", "debug"},
			wantAddress:  "localhost:9090",
			wantDBURI:    "postgresql://db",
			wantRedis:    "localhost:6379",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 36 * time.Hour,
			wantLevel:    "debug",
		},
		{
			name: "env overrides flags",
			args: []string{"cmd", "-a", "localhost:9090", "-d", "postgresql://flagdb", "-t", "72h"},
			envVars: map[string]string{
				"RUN_ADDRESS":      "localhost:7070",
				"DATABASE_URI":     "postgresql://envdb",
				"REDIS_ADDRESS":    "redis:6379",
				"JWT_SECRET":       "env-secret",
				"TOKEN_EXPIRATION": "12h",
				"LOG_LEVEL":        "warn",
			},
			wantAddress:  "localhost:7070",
			wantDBURI:    "postgresql://envdb",
			wantRedis:    "redis:6379",
			wantSecret:   "env-secret",
			wantTokenExp: 12 * time.Hour,
			wantLevel:    "warn",
		},
		{
			name:         "invalid token expiration env fallback",
			args:         []string{"cmd"},
			envVars:      map[string]string{"TOKEN_EXPIRATION": "invalid"},
			wantAddress:  "localhost:8080",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 24 * time.Hour,
			wantLevel:    "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnv(t)
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}
			os.Args = tt.args
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			cfg := Load()

			if cfg.RunAddress != tt.wantAddress {
				t.Errorf("RunAddress = %v, want %v", cfg.RunAddress, tt.wantAddress)
			}
			if cfg.DatabaseURI != tt.wantDBURI {
				t.Errorf("DatabaseURI = %v, want %v", cfg.DatabaseURI, tt.wantDBURI)
			}
			if cfg.RedisAddress != tt.wantRedis {
				t.Errorf("RedisAddress = %v, want %v", cfg.RedisAddress, tt.wantRedis)
			}
			if cfg.JWTSecret != tt.wantSecret {
				t.Errorf("JWTSecret = %v, want %v", cfg.JWTSecret, tt.wantSecret)
			}
			if cfg.TokenExpiration != tt.wantTokenExp {
				t.Errorf("TokenExpiration = %v, want %v", cfg.TokenExpiration, tt.wantTokenExp)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.wantLevel)
			}
		})
	}
}

func TestLoad_Intervals(t *testing.T) {
	resetEnv(t)
	os.Setenv("RATING_CACHE_TTL", "30s")
	os.Setenv("DELIVERY_INTERVAL", "-5s")
	os.Setenv("REDIS_DB", "3")
	os.Args = []string{"cmd"}
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cfg := Load()

	if cfg.RatingCacheTTL != 30*time.Second {
		t.Errorf("RatingCacheTTL = %v, want 30s", cfg.RatingCacheTTL)
	}
	if cfg.DeliveryInterval != 15*time.Second {
		t.Errorf("DeliveryInterval = %v, want default 15s for non-positive value", cfg.DeliveryInterval)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %v, want 3", cfg.RedisDB)
	}
}
