package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/goliatone/go-config/cfgx"
	"github.com/qq8244353/lineWorkflowBridge/pkg/dbtask"
	"gopkg.in/yaml.v3"
)

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"LINE_CHANNEL_SECRET":        "channel_secret",
	"LINE_CHANNEL_ACCESS_TOKEN":  "channel_access_token",
	"WORKFLOW_APP_ID":            "app_id",
	"WORKFLOW_ENDPOINT":          "workflow_endpoint",
	"WORKFLOW_API_KEY":           "workflow_api_key",
	"WORKFLOW_USER":              "workflow_user",
	"WORKFLOW_TIMEOUT_SECONDS":   "workflow_timeout_seconds",
	"LINE_REPLY_ENDPOINT":        "reply_endpoint",
	"REPLY_TIMEOUT_SECONDS":      "reply_timeout_seconds",
	"LINE_NOTIFICATION_DISABLED": "notification_disabled",
	"LOG_LEVEL":                  "log_level",
	"LOG_FORMAT":                 "log_format",
	"SETTINGS_TABLE":             "settings_table",
	"SETTINGS_ID":                "settings_id",
	"LISTEN_ADDR":                "listen_addr",
	"WEBHOOK_PATH":               "webhook_path",
}

var intKeys = map[string]bool{
	"workflow_timeout_seconds": true,
	"reply_timeout_seconds":    true,
}

var boolKeys = map[string]bool{
	"notification_disabled": true,
}

// SettingsSource returns configuration values stored outside the process.
type SettingsSource interface {
	Settings(ctx context.Context, table, id string) (map[string]any, error)
}

type Loader struct {
	// File is an optional YAML file.
	File   string
	Getenv func(string) string
	// NewSettingsSource is called only when a settings table is configured.
	NewSettingsSource func() (SettingsSource, error)
}

// Load layers defaults, the YAML file, the environment and the settings
// table, in that order, and validates the result.
func (l Loader) Load(ctx context.Context) (Config, error) {
	defaults := Defaults()
	raw := toMap(defaults)

	if l.File != "" {
		fileValues, err := readFile(l.File)
		if err != nil {
			return Config{}, err
		}
		if err := merge(raw, fileValues); err != nil {
			return Config{}, err
		}
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envValues := map[string]any{}
	for env, key := range envKeys {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			envValues[key] = v
		}
	}
	if err := merge(raw, envValues); err != nil {
		return Config{}, err
	}

	if table, _ := raw["settings_table"].(string); table != "" {
		newSource := l.NewSettingsSource
		if newSource == nil {
			newSource = NewDynamoSettings
		}
		source, err := newSource()
		if err != nil {
			return Config{}, fmt.Errorf("config: settings source: %w", err)
		}
		id, _ := raw["settings_id"].(string)
		values, err := source.Settings(ctx, table, id)
		if err != nil {
			return Config{}, fmt.Errorf("config: load settings: %w", err)
		}
		if err := merge(raw, values); err != nil {
			return Config{}, err
		}
	}

	return cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return values, nil
}

// merge copies known, non-empty values from src into dst, converting the
// numeric and boolean keys. String values are trimmed.
func merge(dst, src map[string]any) error {
	for key, value := range src {
		if _, known := dst[key]; !known {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if value == nil {
			continue
		}
		if intKeys[key] {
			n, err := toInt(value)
			if err != nil {
				return invalid(fmt.Sprintf("config: %s: %v", key, err))
			}
			dst[key] = n
			continue
		}
		if boolKeys[key] {
			b, err := toBool(value)
			if err != nil {
				return invalid(fmt.Sprintf("config: %s: %v", key, err))
			}
			dst[key] = b
			continue
		}
		dst[key] = strings.TrimSpace(fmt.Sprint(value))
	}
	return nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unsupported value %v", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("unsupported value %v", value)
	}
}

type DynamoSettings struct {
	DB dynamodbiface.DynamoDBAPI
}

func NewDynamoSettings() (SettingsSource, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return DynamoSettings{DB: dynamodb.New(sess)}, nil
}

func (s DynamoSettings) Settings(ctx context.Context, table, id string) (map[string]any, error) {
	settingItem := dbtask.BridgeSetting{}
	if err := dbtask.GetBridgeSetting(ctx, s.DB, table, id, &settingItem); err != nil {
		return nil, err
	}
	return settingItem.Values(), nil
}
