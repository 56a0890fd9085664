package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB bounds request bodies, uploaded workbooks included.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"100"`
	// RequestTimeoutSeconds bounds a single reconciliation or export request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"300"`
}

const (
	DefaultBodyLimitMB    = 100
	DefaultRequestTimeout = 5 * time.Minute
)

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// BodyLimit returns the request body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return DefaultBodyLimitMB * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}

// RequestTimeout returns the per-request processing timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
