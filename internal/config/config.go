package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	HTTPAddr string

	// Database
	DBPath string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Insight service
	InsightHost    string
	InsightPort    int
	InsightTimeout time.Duration

	// Export worker
	ExportDir        string
	AutosaveInterval time.Duration
	ReportInterval   time.Duration

	// Shutdown
	ShutdownGrace time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("LEDGER_HTTP_ADDR", ":8080"),
		DBPath:   getEnv("LEDGER_DB_PATH", "./data/ledger.db"),

		AMQPURL:      getEnv("LEDGER_AMQP_URL", ""),
		AMQPExchange: getEnv("LEDGER_AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("LEDGER_AMQP_QUEUE", "record_events"),

		InsightHost:    getEnv("LEDGER_INSIGHT_HOST", "localhost"),
		InsightPort:    getEnvInt("LEDGER_INSIGHT_PORT", 5000),
		InsightTimeout: getEnvDuration("LEDGER_INSIGHT_TIMEOUT", 30*time.Second),

		ExportDir:        getEnv("LEDGER_EXPORT_DIR", "./data/exports"),
		AutosaveInterval: getEnvDuration("LEDGER_AUTOSAVE_INTERVAL", 5*time.Minute),
		ReportInterval:   getEnvDuration("LEDGER_REPORT_INTERVAL", time.Hour),

		ShutdownGrace: getEnvDuration("LEDGER_SHUTDOWN_GRACE", 10*time.Second),
	}
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPAddr == "" {
		errors = append(errors, "HTTP address cannot be empty")
	} else if _, port, err := splitAddr(c.HTTPAddr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid HTTP address '%s': %v", c.HTTPAddr, err))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.InsightHost == "" {
		errors = append(errors, "insight host cannot be empty")
	}
	if c.InsightPort < 1 || c.InsightPort > 65535 {
		errors = append(errors, fmt.Sprintf("invalid insight port %d: must be between 1 and 65535", c.InsightPort))
	}
	if c.InsightTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid insight timeout %v: must be at least 1 second", c.InsightTimeout))
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}
	if c.AutosaveInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at least 1 second", c.AutosaveInterval))
	} else if c.AutosaveInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at most 24 hours", c.AutosaveInterval))
	}
	if c.ReportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report interval %v: must be at least 1 second", c.ReportInterval))
	} else if c.ReportInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid report interval %v: must be at most 7 days", c.ReportInterval))
	}

	if c.ShutdownGrace < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown grace %v: must be at least 1 second", c.ShutdownGrace))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func splitAddr(addr string) (host string, port int, err error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("missing port")
	}
	host = addr[:i]
	port, err = strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("port must be a number")
	}
	return host, port, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
