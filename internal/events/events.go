// Package events publishes notifications about datasets and generated decisions.
package events

import (
	"context"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
)

// Routing keys
const (
	DatasetIngestedRoutingKey    = "dataset.ingested"
	DecisionsGeneratedRoutingKey = "decisions.generated"
)

// DatasetIngested is published after an upload is stored.
type DatasetIngested struct {
	DatasetID          string    `json:"dataset_id"`
	Name               string    `json:"name"`
	Source             string    `json:"source"`
	RecordsProcessed   int       `json:"records_processed"`
	ProductsIdentified int       `json:"products_identified"`
	RowsSkipped        int       `json:"rows_skipped"`
	IngestedAt         time.Time `json:"ingested_at"`
}

// DecisionsGenerated is published after insights are produced for a dataset.
type DecisionsGenerated struct {
	DatasetID        string    `json:"dataset_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	TotalInsights    int       `json:"total_insights"`
	CriticalActions  int       `json:"critical_actions"`
	CriticalProducts []string  `json:"critical_products"`
}

// Publisher sends events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
	Close() error
}

// New connects to RabbitMQ when events are enabled and returns a no-op publisher otherwise.
func New(ctx context.Context, cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NewNoopPublisher(), nil
	}
	return NewRabbitMQPublisher(ctx, RabbitMQConfig{
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.Exchange,
	})
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
