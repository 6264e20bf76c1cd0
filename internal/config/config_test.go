package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/events"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "DATABASE_URL", "TICK_INTERVAL", "ECF_CREDIT", "EVENTS_PUBLISHER", "EVENTS_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 0.5, cfg.ECFCredit)
	assert.Equal(t, 1, cfg.MaxEditDistance)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "channel", cfg.Events.Publisher)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("ECF_CREDIT", "0.25")
	t.Setenv("MAX_EDIT_DISTANCE", "2")
	t.Setenv("SNAPSHOT_TTL", "not-a-duration")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("WRONG_PICK_PENALTY", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 0.25, cfg.ECFCredit)
	assert.Equal(t, 2, cfg.MaxEditDistance)
	assert.Equal(t, 2*time.Hour, cfg.SnapshotTTL)
	assert.False(t, cfg.Events.Enabled)
	assert.True(t, cfg.WrongPickPenalty)
	assert.True(t, cfg.IsProduction())
}

func TestEventConfig_CreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		cfg    EventConfig
		assert func(t *testing.T, p events.EventPublisher)
	}{
		{
			name: "disabled",
			cfg:  EventConfig{Enabled: false, Publisher: "kafka"},
			assert: func(t *testing.T, p events.EventPublisher) {
				assert.IsType(t, &events.MockEventPublisher{}, p)
			},
		},
		{
			name: "channel",
			cfg:  EventConfig{Enabled: true, Publisher: "channel", SessionTopic: "t"},
			assert: func(t *testing.T, p events.EventPublisher) {
				assert.IsType(t, &events.ChannelEventPublisher{}, p)
			},
		},
		{
			name: "unknown falls back to mock",
			cfg:  EventConfig{Enabled: true, Publisher: "carrier-pigeon"},
			assert: func(t *testing.T, p events.EventPublisher) {
				assert.IsType(t, &events.MockEventPublisher{}, p)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.cfg.CreateEventPublisher(logger)
			require.NoError(t, err)
			defer p.Close()
			tt.assert(t, p)
		})
	}
}

func TestEventConfig_GetKafkaBrokers(t *testing.T) {
	cfg := EventConfig{KafkaBrokers: "a:9092, b:9092,,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())
}
