package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		}
	} `mapstructure:"handlers"`
	LLM struct {
		Provider string `mapstructure:"provider"`
		Model    string `mapstructure:"model"`
	} `mapstructure:"llm"`
	Formatter struct {
		MaxAttempts int     `mapstructure:"maxAttempts"`
		Temperature float32 `mapstructure:"temperature"`
	} `mapstructure:"formatter"`
	Planner struct {
		MaxRepairAttempts int `mapstructure:"maxRepairAttempts"`
		MaxPerDay         int `mapstructure:"maxPerDay"`
	} `mapstructure:"planner"`
	Hotels struct {
		MaxPages int `mapstructure:"maxPages"`
		Weights  struct {
			Location float64 `mapstructure:"location"`
			Review   float64 `mapstructure:"review"`
			Price    float64 `mapstructure:"price"`
			Stars    float64 `mapstructure:"stars"`
		} `mapstructure:"weights"`
	} `mapstructure:"hotels"`
	Providers struct {
		RequestsPerSecond int           `mapstructure:"requestsPerSecond"`
		MaxRetries        int           `mapstructure:"maxRetries"`
		Timeout           time.Duration `mapstructure:"timeout"`
		UserAgent         string        `mapstructure:"userAgent"`
	} `mapstructure:"providers"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")
	v.AddConfigPath("/usr/local/bin/travel-planner")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
