package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.Tracking.PollInterval)
	assert.Equal(t, 120.0, cfg.Tracking.ArrivalRadius)
	assert.Equal(t, 10000.0, cfg.Tracking.MotorcycleMinimum)
	assert.Equal(t, 20000.0, cfg.Tracking.CarMinimum)
	assert.Equal(t, time.Second, cfg.Location.ActiveInterval)
	assert.Equal(t, 10*time.Second, cfg.Location.IdleInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRACKING_POLL_INTERVAL", "500ms")
	t.Setenv("BACKEND_TIMEOUT", "3")
	t.Setenv("TRACKING_ARRIVAL_RADIUS", "80.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, 500*time.Millisecond, cfg.Tracking.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 80.5, cfg.Tracking.ArrivalRadius)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	t.Setenv("TRACKING_POLL_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 2*time.Second, cfg.Tracking.PollInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "empty backend url", modify: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: true},
		{name: "empty routing url", modify: func(c *Config) { c.Routing.BaseURL = "" }, wantErr: true},
		{name: "zero poll interval", modify: func(c *Config) { c.Tracking.PollInterval = 0 }, wantErr: true},
		{name: "negative radius", modify: func(c *Config) { c.Tracking.ArrivalRadius = -1 }, wantErr: true},
		{name: "zero spacing", modify: func(c *Config) { c.Tracking.DensifySpacing = 0 }, wantErr: true},
		{name: "zero confirm count", modify: func(c *Config) { c.Tracking.SnapConfirmCount = 0 }, wantErr: true},
		{name: "zero idle interval", modify: func(c *Config) { c.Location.IdleInterval = 0 }, wantErr: true},
		{name: "kafka without brokers", modify: func(c *Config) { c.Kafka.Brokers = nil }, wantErr: true},
		{name: "location updates on fix topic", modify: func(c *Config) {
			c.Kafka.Topics.LocationUpdates = c.Kafka.Topics.Locations
		}, wantErr: true},
		{name: "session events on push topic", modify: func(c *Config) {
			c.Kafka.Topics.Session = c.Kafka.Topics.Push
		}, wantErr: true},
		{name: "kafka disabled without brokers", modify: func(c *Config) {
			c.Kafka.Enabled = false
			c.Kafka.Brokers = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
