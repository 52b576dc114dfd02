package config

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the dotted config key.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over cfg. It does not touch the network or
// the filesystem.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		add(SeverityError, "database_path", "must not be empty")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		add(SeverityError, "data_dir", "must not be empty")
	}

	if cfg.DownloadURL == "" {
		add(SeverityWarning, "download_url", "empty; fetch and sync will fail")
	} else if u, err := url.Parse(cfg.DownloadURL); err != nil || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		add(SeverityError, "download_url", "must be an http(s) URL or a local path, got %q", cfg.DownloadURL)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		add(SeverityError, "log.level", "unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		add(SeverityError, "log.format", "must be console or json, got %q", cfg.Log.Format)
	}

	if cfg.HTTP.Timeout <= 0 {
		add(SeverityError, "http.timeout", "must be positive")
	}
	if cfg.HTTP.MaxRetries < 0 {
		add(SeverityError, "http.max_retries", "must be >= 0")
	}
	if cfg.HTTP.InitialBackoff > cfg.HTTP.MaxBackoff && cfg.HTTP.MaxBackoff > 0 {
		add(SeverityWarning, "http.initial_backoff", "exceeds http.max_backoff; every wait is clamped")
	}
	if cfg.HTTP.InsecureSkipVerify {
		add(SeverityWarning, "http.insecure_skip_verify", "TLS verification is disabled")
	}

	switch cfg.Ingest.DeliveryPolicy {
	case "always", "new_match_only":
	default:
		add(SeverityError, "ingest.delivery_policy", "must be always or new_match_only, got %q", cfg.Ingest.DeliveryPolicy)
	}

	switch cfg.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if cfg.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "required when metrics.backend is pushgateway")
		}
	case "datadog":
		if cfg.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "required when metrics.backend is datadog")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown backend %q", cfg.Metrics.Backend)
	}

	return issues
}
