package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	p, err := New(context.Background(), config.EventsConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), DecisionsGeneratedRoutingKey, DecisionsGenerated{}))
	assert.NoError(t, p.Close())
}

func TestEnsureExchange(t *testing.T) {
	assert.Equal(t, "decision_exchange", ensureExchange(""))
	assert.Equal(t, "custom", ensureExchange("custom"))
}

func TestDecisionsGenerated_JSON(t *testing.T) {
	event := DecisionsGenerated{
		DatasetID:        "ds-1",
		GeneratedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalInsights:    3,
		CriticalActions:  1,
		CriticalProducts: []string{"A"},
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dataset_id": "ds-1",
		"generated_at": "2024-01-01T00:00:00Z",
		"total_insights": 3,
		"critical_actions": 1,
		"critical_products": ["A"]
	}`, string(data))
}

func TestRabbitMQPublisher(t *testing.T) {
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("TEST_RABBITMQ_URL not set, skipping RabbitMQ integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := NewRabbitMQPublisher(ctx, RabbitMQConfig{URL: url, Exchange: "decision_exchange_test"})
	if err != nil {
		t.Skipf("rabbitmq not reachable: %v", err)
	}
	defer p.Close()

	assert.NoError(t, p.Publish(ctx, DatasetIngestedRoutingKey, DatasetIngested{DatasetID: "ds-1"}))
}
