package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/vitalsim.db")

	// Generation defaults
	v.SetDefault("generator.seed", 0) // 0 = seed from the clock

	// Live feed defaults
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.interval", "5s")
	v.SetDefault("feed.persist", true)

	// Kafka mirror (off unless brokers are configured)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "vitalsim.readings")

	// Share code defaults
	v.SetDefault("share.secret", "")
	v.SetDefault("share.code_ttl", "168h")
	v.SetDefault("share.base_url", "http://localhost:8080")

	// LLM analysis defaults
	v.SetDefault("chat.url", "http://localhost:11434")
	v.SetDefault("chat.model", "llama3")
	v.SetDefault("chat.timeout", "5m")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("vitalsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/vitalsim")
	}

	// Environment variable support: VS_SERVER_PORT=9090
	v.SetEnvPrefix("VS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
