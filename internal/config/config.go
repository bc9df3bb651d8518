package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AI       AIConfig       `mapstructure:"ai"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AIConfig groups the external AI provider settings. Every timeout here
// bounds a single provider call; the services fall back rather than hang
// when one elapses.
type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`

	VisionTimeout   time.Duration `mapstructure:"vision_timeout"`
	IdentityTimeout time.Duration `mapstructure:"identity_timeout"`
	PlanTimeout     time.Duration `mapstructure:"plan_timeout"`
	ImageTimeout    time.Duration `mapstructure:"image_timeout"`

	// ImageCallSpacing is the minimum gap between two image-generation
	// calls, measured from the end of the previous call. The provider
	// enforces a small per-minute quota.
	ImageCallSpacing time.Duration `mapstructure:"image_call_spacing"`
	AssetQueueSize   int           `mapstructure:"asset_queue_size"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling: server.address -> SERVER_ADDRESS,
	// ai.image_call_spacing -> AI_IMAGE_CALL_SPACING, etc.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "physiq_app_default")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("ai.vision_timeout", "45s")
	viper.SetDefault("ai.identity_timeout", "20s")
	viper.SetDefault("ai.plan_timeout", "60s")
	viper.SetDefault("ai.image_timeout", "90s")
	viper.SetDefault("ai.image_call_spacing", "16s")
	viper.SetDefault("ai.asset_queue_size", 64)

	err = viper.ReadInConfig()
	// Config file not found is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
