package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
// It is built once at startup and handed to components explicitly; there is no
// ambient global lookup.
type Config struct {
	Server struct {
		Addr              string
		SessionTTLMinutes int
	}
	Database struct {
		Path string
	}
	Auth struct {
		SecretKey string
	}
	Youtube struct {
		Token          string
		Endpoint       string
		TimeoutSeconds int
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("VIDHALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.sessionttlminutes", 24*60)
	v.SetDefault("database.path", "data/vidhall.db")
	v.SetDefault("auth.secretkey", "")
	v.SetDefault("youtube.token", "")
	v.SetDefault("youtube.endpoint", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.timeoutseconds", 10)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports the first missing required value. The server must not start
// serving with incomplete configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return fmt.Errorf("auth secret key is required")
	}
	if strings.TrimSpace(c.Youtube.Token) == "" {
		return fmt.Errorf("youtube api token is required")
	}
	if c.Server.SessionTTLMinutes <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
