package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	ExecutorImmediate = "immediate"
	ExecutorQueued    = "queued"

	// DefaultPath is the config file used when none is given. It may be absent.
	DefaultPath = "config.yaml"

	defaultAddress     = ":4001"
	defaultPackageName = "com.example.billingx"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Billing struct {
		PackageName string `yaml:"package_name"`
		SeedFile    string `yaml:"seed_file"`
		Executor    string `yaml:"executor"`
		// PlayEndpoint is the androidpublisher base URL used by /billing/verify.
		// Empty means this server's own address.
		PlayEndpoint string `yaml:"play_endpoint"`
	} `yaml:"billing"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// LoadConfig reads the YAML config at path. An empty path, or a missing
// DefaultPath, yields defaults; any other missing file is an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Address = ":" + port
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = defaultAddress
	}
	if strings.TrimSpace(c.Billing.PackageName) == "" {
		c.Billing.PackageName = defaultPackageName
	}
	c.Billing.Executor = strings.ToLower(strings.TrimSpace(c.Billing.Executor))
	if c.Billing.Executor == "" {
		c.Billing.Executor = ExecutorImmediate
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
}

// PlayEndpointURL returns Billing.PlayEndpoint, or the loopback URL of
// Server.Address when unset.
func (c Config) PlayEndpointURL() string {
	if ep := strings.TrimSpace(c.Billing.PlayEndpoint); ep != "" {
		if !strings.HasSuffix(ep, "/") {
			ep += "/"
		}
		return ep
	}
	host, port, err := net.SplitHostPort(c.Server.Address)
	if err != nil {
		host, port = "", strings.TrimPrefix(c.Server.Address, ":")
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func (c Config) Validate() error {
	switch c.Billing.Executor {
	case ExecutorImmediate, ExecutorQueued:
		return nil
	default:
		return fmt.Errorf("billing.executor: unsupported value %q", c.Billing.Executor)
	}
}
