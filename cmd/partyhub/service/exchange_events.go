package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
	"github.com/staffparty/partyhub/common/queue"
)

// ExchangeEventHandler reacts to committed gift-exchange transitions
type ExchangeEventHandler struct {
	exchanges *GiftExchangeService
	metrics   *metrics.PartyMetrics
	log       *logger.Logger
}

// NewExchangeEventHandler creates a handler. metrics may be nil.
func NewExchangeEventHandler(exchanges *GiftExchangeService, m *metrics.PartyMetrics, log *logger.Logger) *ExchangeEventHandler {
	return &ExchangeEventHandler{
		exchanges: exchanges,
		metrics:   m,
		log:       log,
	}
}

// Subscribe attaches the handler to the exchange topic until ctx is done
func (h *ExchangeEventHandler) Subscribe(ctx context.Context, q queue.Queue) error {
	return q.Subscribe(ctx, ExchangeEventsTopic, h.Handle)
}

// Handle invalidates the admin summary and counts the transition
func (h *ExchangeEventHandler) Handle(ctx context.Context, key string, value []byte) error {
	var event models.ExchangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to decode exchange event %s: %w", key, err)
	}

	// Transitions committed by other replicas only reach this process here
	h.exchanges.InvalidateSummary(ctx)

	if h.metrics != nil {
		h.metrics.ExchangeTransitions.WithLabelValues(string(event.Kind)).Inc()
	}

	h.log.WithFields(map[string]any{
		"kind":     event.Kind,
		"owner_id": event.OwnerID,
		"version":  event.Version,
	}).Debug("exchange event handled")
	return nil
}
