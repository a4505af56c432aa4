package config

import "time"

type Config struct {
	Token       string
	AdminChatID int64

	RegistryPath string
	MessagesFile string

	// SettleWindow is the media-group quiescence window: how long to
	// wait after the last photo of a burst before treating it as done.
	SettleWindow time.Duration

	// SessionTTL and SweepSchedule control the abandoned-session
	// expiry sweep.
	SessionTTL    time.Duration
	SweepSchedule string

	Storage StorageConfig
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}
