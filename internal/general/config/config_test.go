package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  host: db.internal   # comment
  port: 5433
  user: drivehub
  password: "s3cret"
  database: drivehub

rabbitmq:
  host: mq.internal
  port: 5672
  user: guest
  password: guest

websocket:
  port: 8090

services:
  trip_service: 3100

jwt:
  secret_key: 'dev-secret'

trips:
  draft_ttl: 3m
  sweep_interval: 30s
  stream_buffer: 8
  match_timeout: 90s
`

func TestParseYAML(t *testing.T) {
	var cfg Config
	require.NoError(t, parseYAML(strings.NewReader(sampleYAML), &cfg))

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "drivehub", cfg.Database.Name)
	assert.Equal(t, 8090, cfg.WebSocket.Port)
	assert.Equal(t, 3100, cfg.Services.TripServicePort)
	assert.Equal(t, "dev-secret", cfg.JWT.SecretKey)
	assert.Equal(t, 3*time.Minute, cfg.Trips.DraftTTL)
	assert.Equal(t, 30*time.Second, cfg.Trips.SweepInterval)
	assert.Equal(t, 8, cfg.Trips.StreamBuffer)
	assert.Equal(t, 90*time.Second, cfg.Trips.MatchTimeout)
}

func TestTripsSectionIsStandalone(t *testing.T) {
	var cfg Config
	require.NoError(t, parseYAML(strings.NewReader(sampleYAML), &cfg))

	// the trips section is handed to the trip service as its own value
	var section Trips = cfg.Trips
	assert.Equal(t, 3*time.Minute, section.DraftTTL)
	assert.Equal(t, 8, section.StreamBuffer)
}

func TestParseYAMLErrors(t *testing.T) {
	var cfg Config

	t.Run("unknown top-level key", func(t *testing.T) {
		err := parseYAML(strings.NewReader("redis:\n  port: 6379\n"), &cfg)
		assert.ErrorContains(t, err, "unknown top-level key")
	})

	t.Run("key without section", func(t *testing.T) {
		err := parseYAML(strings.NewReader("  port: 6379\n"), &cfg)
		assert.ErrorContains(t, err, "key without a section")
	})

	t.Run("duplicate section", func(t *testing.T) {
		err := parseYAML(strings.NewReader("jwt:\n  secret_key: a\njwt:\n  secret_key: b\n"), &cfg)
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("bad duration", func(t *testing.T) {
		err := parseYAML(strings.NewReader("trips:\n  draft_ttl: fast\n"), &cfg)
		assert.ErrorContains(t, err, "draft_ttl")
	})
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Services.TripServicePort)
	assert.NotEmpty(t, cfg.JWT.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.Trips.DraftTTL)
	assert.Equal(t, 16, cfg.Trips.StreamBuffer)
	assert.Equal(t, 2*time.Minute, cfg.Trips.MatchTimeout)
}

func TestValidate(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "d"
	cfg.RabbitMQ.User = "u"
	cfg.RabbitMQ.Password = "p"
	require.NoError(t, cfg.validate())

	cfg.Trips.StreamBuffer = -1
	assert.ErrorContains(t, cfg.validate(), "stream_buffer")
}
