package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/techbeetle/news-router/internal/domain"
)

// EventContentUpserted is emitted after an article row is written.
const EventContentUpserted = "content.upserted"

// Event is the payload published downstream.
type Event struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	Country   string         `json:"country"`
	Slug      string         `json:"slug"`
	Provider  string         `json:"provider"`
	Article   domain.Article `json:"article"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// NewEvent builds a content.upserted event for a persisted article.
func NewEvent(runID, country string, article domain.Article, at time.Time) Event {
	return Event{
		Type:      EventContentUpserted,
		RunID:     runID,
		Country:   country,
		Slug:      article.Slug,
		Provider:  article.Provider,
		Article:   article,
		EmittedAt: at.UTC(),
	}
}

// attributes are the routing hints attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	out := map[string]string{"event_type": e.Type}
	if e.Country != "" {
		out["country"] = e.Country
	}
	if e.Provider != "" {
		out["provider"] = e.Provider
	}
	return out
}

func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event for %q: %w", e.Type, e.Slug, err)
	}
	return payload, nil
}

// reportDelivery logs one delivery outcome for a message-bus sink and returns err wrapped
// with the sink type, or nil on success.
func reportDelivery(log Logger, sinkType, sinkID string, evt Event, messageID string, err error) error {
	if err != nil {
		log.ErrorObj("event delivery failed", "publisher_error", map[string]any{
			"publisher_id":   sinkID,
			"publisher_type": sinkType,
			"slug":           evt.Slug,
			"error":          err.Error(),
		})
		return fmt.Errorf("%s delivery: %w", sinkType, err)
	}
	log.DebugObj("event delivered", "publisher_delivery", map[string]any{
		"publisher_id":   sinkID,
		"publisher_type": sinkType,
		"slug":           evt.Slug,
		"message_id":     messageID,
	})
	return nil
}
