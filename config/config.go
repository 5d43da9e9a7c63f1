package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultCGWURL         = "https://safe-client.safe.global"
	defaultHTTPServerPort = "8080"
	defaultRefreshDelay   = 5 * time.Minute
	defaultPollInterval   = 30 * time.Second
	defaultRPCTimeout     = 15 * time.Second
)

type Config struct {
	RPCURL              string
	ChainId             int64
	CGWURL              string
	DBDriver            string
	DBDSN               string
	HTTPServerPort      string
	BotAPIKey           string
	RecovererPrivateKey string
	HTTPAPIToken        string
	RefreshDelay        time.Duration
	PollInterval        time.Duration
	RPCTimeout          time.Duration
}

// Init loads config/.env.<BOT_ENV>.local and config/.env.<BOT_ENV> into the
// environment. Missing files are not fatal: the environment may already be set.
func Init() {
	// Getting configuration dir
	exPath, err := os.Getwd()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	exPath += "/config/"

	botEnv, exists := os.LookupEnv("BOT_ENV")
	if !exists {
		botEnv = "dev"
	}
	for _, file := range []string{exPath + ".env." + botEnv + ".local", exPath + ".env." + botEnv} {
		if err := godotenv.Load(file); err != nil {
			log.Printf("Skip env file %s: %v\n", file, err)
		}
	}
	log.Println("Loaded ENV variables")
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		RPCURL:              os.Getenv("RPC_URL"),
		CGWURL:              getEnv("CGW_URL", defaultCGWURL),
		DBDriver:            getEnv("DB_DRIVER", "sqlite"),
		DBDSN:               getEnv("DB_DSN", "recovery.db"),
		HTTPServerPort:      getEnv("HTTP_SERVER_PORT", defaultHTTPServerPort),
		BotAPIKey:           os.Getenv("BOT_API_KEY"),
		RecovererPrivateKey: os.Getenv("RECOVERER_PRIVATE_KEY"),
		HTTPAPIToken:        os.Getenv("HTTP_API_TOKEN"),
	}

	var err error
	if cfg.ChainId, err = getInt("CHAIN_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.RefreshDelay, err = getDuration("RECOVERY_REFRESH_DELAY", defaultRefreshDelay); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = getDuration("HISTORY_POLL_INTERVAL", defaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.RPCTimeout, err = getDuration("RPC_TIMEOUT", defaultRPCTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return Config{}, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	return cfg, nil
}

func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return parsed, nil
}
