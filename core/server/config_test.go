package server_test

import (
	"testing"
	"time"

	"sheet-reconciler/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Limits(t *testing.T) {
	tests := []struct {
		name        string
		cfg         server.Config
		wantBody    int
		wantTimeout time.Duration
	}{
		{"Configured", server.Config{BodyLimitMB: 10, RequestTimeoutSeconds: 30}, 10 * 1024 * 1024, 30 * time.Second},
		{"Defaults", server.Config{}, 100 * 1024 * 1024, 5 * time.Minute},
		{"Negative", server.Config{BodyLimitMB: -1, RequestTimeoutSeconds: -1}, 100 * 1024 * 1024, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantBody, tt.cfg.BodyLimit())
			assert.Equal(t, tt.wantTimeout, tt.cfg.RequestTimeout())
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", server.Config{Port: "8080"}.Addr())
}

func TestConfig_AuthEnabled(t *testing.T) {
	assert.False(t, server.Config{}.AuthEnabled())
	assert.True(t, server.Config{ApiKey: "secret"}.AuthEnabled())
}
