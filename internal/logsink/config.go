package logsink

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Level slog.Level

	// Azure append blob sink. Enabled when Container is set. Without
	// AccountKey the default Azure credential chain is used.
	AccountName string
	AccountKey  string
	Container   string
	FlushEvery  time.Duration

	// OTLP log and trace export. Enabled when set; the exporters read the
	// rest of the OTEL_EXPORTER_OTLP_* variables themselves.
	OTLPEndpoint string
}

func ConfigFromEnv() Config {
	cfg := Config{
		AccountName:  os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
		AccountKey:   os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
		Container:    os.Getenv("LOGS_CONTAINER"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		if err := cfg.Level.UnmarshalText([]byte(lvl)); err != nil {
			slog.Warn("ignoring invalid LOG_LEVEL", "value", lvl, "error", err)
		}
	}
	return cfg
}

func (c Config) Enabled() bool {
	return c.Container != ""
}
