package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	adminID, err := strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is required and must be an integer: %w", err)
	}

	registryPath := os.Getenv("ALBUMBOT_REGISTRY")
	if registryPath == "" {
		registryPath = "albumbot.db"
	}

	settleWindow := time.Second
	if v := os.Getenv("ALBUMBOT_SETTLE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid ALBUMBOT_SETTLE_WINDOW %q", v)
		}
		settleWindow = d
	}

	sessionTTL := 30 * time.Minute
	if v := os.Getenv("ALBUMBOT_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid ALBUMBOT_SESSION_TTL %q", v)
		}
		sessionTTL = d
	}

	sweepSchedule := os.Getenv("ALBUMBOT_SWEEP_SCHEDULE")
	if sweepSchedule == "" {
		sweepSchedule = "*/5 * * * *"
	}

	return &Config{
		Token:         token,
		AdminChatID:   adminID,
		RegistryPath:  registryPath,
		MessagesFile:  os.Getenv("ALBUMBOT_MESSAGES"),
		SettleWindow:  settleWindow,
		SessionTTL:    sessionTTL,
		SweepSchedule: sweepSchedule,
		Storage:       loadStorageConfig(),
	}, nil
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}
