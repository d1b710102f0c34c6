package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/tripplanner/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Event types published on itinerary mutations
const (
	EventItemCreated   = "itinerary.item.created"
	EventItemUpdated   = "itinerary.item.updated"
	EventItemDeleted   = "itinerary.item.deleted"
	EventItemMoved     = "itinerary.item.moved"
	EventDayReordered  = "itinerary.day.reordered"
	EventBatchReorder  = "itinerary.batch.reordered"
	EventTripDeleted   = "trip.deleted"
)

// ItineraryEvent is the message body published for downstream consumers
type ItineraryEvent struct {
	Type      string    `json:"type"`
	TripID    uuid.UUID `json:"trip_id"`
	ItemID    uuid.UUID `json:"item_id,omitempty"`
	DayNumber int       `json:"day_number,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher sends itinerary change events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event ItineraryEvent) error
	Close() error
}

// servicePublisher implements Publisher over Azure Service Bus
type servicePublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
}

// nopPublisher is used when no connection string is configured
type nopPublisher struct{}

// NewPublisher creates an itinerary event publisher. Without a connection
// string it degrades to a no-op so local development needs no broker.
func NewPublisher(cfg config.AzureConfig) (Publisher, error) {
	if cfg.QueueConnStr == "" {
		log.Warn().Msg("Azure Service Bus not configured, itinerary events will not be published")
		return &nopPublisher{}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &servicePublisher{
		client: client,
		sender: sender,
	}, nil
}

// Publish sends one event to the queue
func (p *servicePublisher) Publish(ctx context.Context, event ItineraryEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal itinerary event")
	}

	msg := &azservicebus.Message{
		Body:        body,
		ContentType: strPtr("application/json"),
		Subject:     strPtr(event.Type),
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrap(err, "failed to publish itinerary event")
	}

	return nil
}

// Close releases the sender and client
func (p *servicePublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.sender.Close(ctx); err != nil {
		return errors.Wrap(err, "failed to close Service Bus sender")
	}
	return errors.Wrap(p.client.Close(ctx), "failed to close Service Bus client")
}

func (p *nopPublisher) Publish(ctx context.Context, event ItineraryEvent) error {
	log.Debug().Str("type", event.Type).Str("trip_id", event.TripID.String()).Msg("dropping itinerary event, publisher disabled")
	return nil
}

func (p *nopPublisher) Close() error { return nil }

func strPtr(s string) *string { return &s }
