package config

import (
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const TextCodeConfigInvalid = "CONFIG_INVALID"

type Config struct {
	ChannelSecret          string `koanf:"channel_secret" mapstructure:"channel_secret" yaml:"channel_secret"`
	ChannelAccessToken     string `koanf:"channel_access_token" mapstructure:"channel_access_token" yaml:"channel_access_token"`
	AppID                  string `koanf:"app_id" mapstructure:"app_id" yaml:"app_id"`
	WorkflowEndpoint       string `koanf:"workflow_endpoint" mapstructure:"workflow_endpoint" yaml:"workflow_endpoint"`
	WorkflowAPIKey         string `koanf:"workflow_api_key" mapstructure:"workflow_api_key" yaml:"workflow_api_key"`
	WorkflowUser           string `koanf:"workflow_user" mapstructure:"workflow_user" yaml:"workflow_user"`
	WorkflowTimeoutSeconds int    `koanf:"workflow_timeout_seconds" mapstructure:"workflow_timeout_seconds" yaml:"workflow_timeout_seconds"`
	ReplyEndpoint          string `koanf:"reply_endpoint" mapstructure:"reply_endpoint" yaml:"reply_endpoint"`
	ReplyTimeoutSeconds    int    `koanf:"reply_timeout_seconds" mapstructure:"reply_timeout_seconds" yaml:"reply_timeout_seconds"`
	NotificationDisabled   bool   `koanf:"notification_disabled" mapstructure:"notification_disabled" yaml:"notification_disabled"`
	LogLevel               string `koanf:"log_level" mapstructure:"log_level" yaml:"log_level"`
	LogFormat              string `koanf:"log_format" mapstructure:"log_format" yaml:"log_format"`
	SettingsTable          string `koanf:"settings_table" mapstructure:"settings_table" yaml:"settings_table"`
	SettingsID             string `koanf:"settings_id" mapstructure:"settings_id" yaml:"settings_id"`
	ListenAddr             string `koanf:"listen_addr" mapstructure:"listen_addr" yaml:"listen_addr"`
	WebhookPath            string `koanf:"webhook_path" mapstructure:"webhook_path" yaml:"webhook_path"`
}

func Defaults() Config {
	return Config{
		WorkflowUser:           "line-bridge",
		WorkflowTimeoutSeconds: 120,
		ReplyEndpoint:          "https://api.line.me/v2/bot/message/reply",
		ReplyTimeoutSeconds:    10,
		LogLevel:               "info",
		LogFormat:              "json",
		SettingsID:             "default",
		ListenAddr:             ":8080",
		WebhookPath:            "/webhook",
	}
}

func (c Config) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.ChannelSecret) == "" {
		missing = append(missing, "channel_secret")
	}
	if strings.TrimSpace(c.ChannelAccessToken) == "" {
		missing = append(missing, "channel_access_token")
	}
	if strings.TrimSpace(c.AppID) == "" {
		missing = append(missing, "app_id")
	}
	if strings.TrimSpace(c.WorkflowEndpoint) == "" {
		missing = append(missing, "workflow_endpoint")
	}
	if len(missing) > 0 {
		return invalid("config: missing " + strings.Join(missing, ", "))
	}
	if c.WorkflowTimeoutSeconds <= 0 {
		return invalid("config: workflow_timeout_seconds must be positive")
	}
	if c.ReplyTimeoutSeconds <= 0 {
		return invalid("config: reply_timeout_seconds must be positive")
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		return invalid("config: webhook_path must start with /")
	}
	return nil
}

func (c Config) WorkflowTimeout() time.Duration {
	return time.Duration(c.WorkflowTimeoutSeconds) * time.Second
}

func (c Config) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutSeconds) * time.Second
}

func invalid(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeConfigInvalid)
}

func toMap(c Config) map[string]any {
	return map[string]any{
		"channel_secret":           c.ChannelSecret,
		"channel_access_token":     c.ChannelAccessToken,
		"app_id":                   c.AppID,
		"workflow_endpoint":        c.WorkflowEndpoint,
		"workflow_api_key":         c.WorkflowAPIKey,
		"workflow_user":            c.WorkflowUser,
		"workflow_timeout_seconds": c.WorkflowTimeoutSeconds,
		"reply_endpoint":           c.ReplyEndpoint,
		"reply_timeout_seconds":    c.ReplyTimeoutSeconds,
		"notification_disabled":    c.NotificationDisabled,
		"log_level":                c.LogLevel,
		"log_format":               c.LogFormat,
		"settings_table":           c.SettingsTable,
		"settings_id":              c.SettingsID,
		"listen_addr":              c.ListenAddr,
		"webhook_path":             c.WebhookPath,
	}
}
